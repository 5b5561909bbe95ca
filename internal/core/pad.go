package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/cryptopad/internal/config"
	"github.com/illarion/cryptopad/internal/container"
	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/illarion/cryptopad/internal/security"
	"github.com/illarion/cryptopad/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

var (
	ErrAlreadyLocked    = errors.New("document is already locked")
	ErrNotLocked        = errors.New("document is not locked")
	ErrIsDirectory      = errors.New("path is a directory")
	ErrNotCataloged     = errors.New("document not in catalog")
	ErrConcurrentChange = errors.New("document changed on disk while editing")
	ErrEditAborted      = errors.New("edit aborted")
)

// Options tunes a Pad. Zero values pick the defaults.
type Options struct {
	Catalog   string            // catalog file name in the workspace root
	Version   container.Version // AE-1 or AE-2 for new containers
	StampTime bool              // record the modification time in containers
	Editor    string            // overrides VISUAL and EDITOR
	Logger    *logrus.Logger
}

// OptionsFromConfig maps user settings onto Pad options.
func OptionsFromConfig(cfg *config.Config, logger *logrus.Logger) Options {
	return Options{
		Catalog:   cfg.Catalog,
		Version:   container.Version(cfg.AEVersion),
		StampTime: cfg.StampTime,
		Editor:    cfg.Editor,
		Logger:    logger,
	}
}

// Pad manages encrypted documents in one workspace directory
type Pad struct {
	validator *security.PathValidator
	catalog   string // absolute catalog path
	opts      Options
	log       *logrus.Entry
}

// Document is a loaded document. Data is plaintext; callers clear it with
// crypto.ClearBytes when done.
type Document struct {
	Path   string
	Data   []byte
	Locked bool              // the file on disk is a container
	Header *container.Header // nil for plain files
	Mode   os.FileMode
}

// New opens the workspace rooted at dir.
func New(dir string, opts Options) (*Pad, error) {
	validator, err := security.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize path validator: %w", err)
	}

	if opts.Catalog == "" {
		opts.Catalog = config.DefaultCatalog
	}
	if opts.Version == 0 {
		opts.Version = container.AE1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Pad{
		validator: validator,
		catalog:   filepath.Join(validator.Dir(), opts.Catalog),
		opts:      opts,
		log:       logger.WithField("workspace", validator.Dir()),
	}, nil
}

// Close releases resources held by the Pad
func (p *Pad) Close() error {
	if p.validator != nil {
		return p.validator.Close()
	}
	return nil
}

// CatalogName returns the catalog file name.
func (p *Pad) CatalogName() string {
	return p.opts.Catalog
}

// CatalogPath returns the absolute catalog path.
func (p *Pad) CatalogPath() string {
	return p.catalog
}

// Resolve converts a command-line argument into a validated
// workspace-relative document path.
func (p *Pad) Resolve(arg string) (string, error) {
	rel, err := p.validator.Relative(arg)
	if err != nil {
		return "", err
	}
	if rel == p.opts.Catalog {
		return "", fmt.Errorf("%s is the catalog, not a document", rel)
	}
	return rel, nil
}

// secureFileMode masks a file mode to preserve execute for owner only, removes group/other.
// Returns FilePermSecure (0600) if the result would be zero.
func secureFileMode(mode os.FileMode) os.FileMode {
	secure := mode.Perm() & 0700
	if secure == 0 {
		return FilePermSecure
	}
	return secure
}

// readRaw returns the bytes on disk and the file mode.
func (p *Pad) readRaw(path string) ([]byte, os.FileMode, error) {
	info, err := p.validator.StatInRoot(path)
	if err != nil {
		return nil, 0, err
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	raw, err := p.validator.ReadFileInRoot(path)
	if err != nil {
		return nil, 0, err
	}
	return raw, secureFileMode(info.Mode()), nil
}

// decode applies the load rule: a file that parses as a container needs
// the password, anything else is plain data.
func decode(raw, password []byte) ([]byte, *container.Header, error) {
	if len(raw) == 0 {
		return raw, nil, nil
	}
	h, err := container.Inspect(raw)
	if errors.Is(err, container.ErrNotContainer) {
		return raw, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if len(password) == 0 {
		return nil, h, container.ErrNoPassword
	}
	data, err := container.Open(raw, password)
	if err != nil {
		return nil, h, err
	}
	return data, h, nil
}

// Load reads a document, decrypting it when it is a container.
func (p *Pad) Load(path string, password []byte) (*Document, error) {
	raw, mode, err := p.readRaw(path)
	if err != nil {
		return nil, err
	}

	data, h, err := decode(raw, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if h != nil {
		crypto.ClearBytes(raw)
	}

	return &Document{Path: path, Data: data, Locked: h != nil, Header: h, Mode: mode}, nil
}

// IsLocked reports whether the file at path currently holds a container.
// No password is needed.
func (p *Pad) IsLocked(path string) (bool, error) {
	raw, _, err := p.readRaw(path)
	if err != nil {
		return false, err
	}
	_, err = container.Inspect(raw)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, container.ErrNotContainer), errors.Is(err, container.ErrInvalidParameters):
		return false, nil
	}
	return false, err
}

func (p *Pad) sealOptions() []container.Option {
	opts := []container.Option{container.WithVersion(p.opts.Version)}
	if p.opts.StampTime {
		opts = append(opts, container.WithModTime(time.Now()))
	}
	return opts
}

// seal builds a container and writes it over path.
func (p *Pad) seal(path string, plaintext, password []byte, mode os.FileMode) (*container.Header, error) {
	sealed, err := container.Seal(plaintext, password, p.sealOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to seal %s: %w", path, err)
	}
	h, err := container.Inspect(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect sealed %s: %w", path, err)
	}
	if err := p.validator.ReplaceFileInRoot(path, sealed, mode); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return h, nil
}

// Save writes data to path: as a container when a password is given,
// as plain bytes otherwise. Parent directories are created.
func (p *Pad) Save(path string, data, password []byte) error {
	mode := os.FileMode(FilePermSecure)
	if info, err := p.validator.StatInRoot(path); err == nil {
		mode = secureFileMode(info.Mode())
	}
	if dir := filepath.Dir(filepath.FromSlash(path)); dir != "." {
		if err := p.validator.MkdirAllInRoot(dir, DirPermSecure); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if len(password) == 0 {
		if err := p.validator.ReplaceFileInRoot(path, data, mode); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		p.recordUnlocked(path, int64(len(data)))
		return nil
	}

	h, err := p.seal(path, data, password, mode)
	if err != nil {
		return err
	}
	p.recordLocked(path, h)
	return nil
}

// openCatalog opens the catalog, creating it on first use.
func (p *Pad) openCatalog() (*storage.Storage, error) {
	db, err := storage.Open(p.catalog)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	return db, nil
}

// catalogExists reports whether a catalog file is present.
func (p *Pad) catalogExists() bool {
	_, err := os.Stat(p.catalog)
	return err == nil
}

// record applies fn to the entry for path. A missing entry is created
// when create is set and skipped otherwise.
func (p *Pad) record(path string, create bool, fn func(e *storage.DocumentEntry)) (*storage.DocumentEntry, error) {
	if !create && !p.catalogExists() {
		return nil, nil
	}

	db, err := p.openCatalog()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	entry, err := db.GetDocument(path)
	if err != nil {
		return nil, err
	}
	if entry == nil && !create {
		return nil, nil
	}
	if entry == nil {
		id, err := storage.NewDocumentID()
		if err != nil {
			return nil, err
		}
		entry = &storage.DocumentEntry{ID: id, Path: path}
	}
	fn(entry)
	if err := db.PutDocument(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Catalog failures never undo a completed file write; they are logged.
func (p *Pad) recordLocked(path string, h *container.Header) *storage.DocumentEntry {
	entry, err := p.record(path, true, func(e *storage.DocumentEntry) {
		e.Size = int64(h.UncompressedSize)
		e.MarkLocked(int64(h.Size), h.Strength.Bits(), int(h.Version), h.CRC32, time.Now())
	})
	if err != nil {
		p.log.WithError(err).WithField("path", path).Warn("failed to update catalog")
	}
	return entry
}

// recordUnlocked only touches documents already in the catalog: editing an
// arbitrary plain file does not register it.
func (p *Pad) recordUnlocked(path string, size int64) *storage.DocumentEntry {
	entry, err := p.record(path, false, func(e *storage.DocumentEntry) {
		e.MarkUnlocked(size)
	})
	if err != nil {
		p.log.WithError(err).WithField("path", path).Warn("failed to update catalog")
	}
	return entry
}
