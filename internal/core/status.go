package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/cryptopad/internal/container"
	"github.com/illarion/cryptopad/internal/git"
	"github.com/illarion/cryptopad/internal/storage"
)

var ErrNoCatalog = errors.New("no catalog in this workspace (lock a document first)")

// Document states reported by Status
const (
	StateLocked   = "locked"
	StateUnlocked = "unlocked"
	StateMissing  = "missing"
	StateError    = "error"
)

// Info describes one file without needing its password.
type Info struct {
	Path   string
	Size   int64             // bytes on disk
	Locked bool              // the file is a container
	Header *container.Header // nil for plain files
	Entry  *storage.DocumentEntry
}

// DocumentStatus is one catalog entry checked against the disk.
type DocumentStatus struct {
	Path  string
	State string
	Entry storage.DocumentEntry
	Drift bool // the file no longer matches what the catalog recorded
}

// StatusInfo summarizes the workspace catalog
type StatusInfo struct {
	Catalog       string
	Created       time.Time
	Modified      time.Time
	Documents     []DocumentStatus
	LockedCount   int
	UnlockedCount int
	MissingCount  int
	TotalSize     int64
	Algorithm     string
	GitStatus     *git.GitStatus
}

// Info inspects a file: its size, whether it is locked and the container
// parameters. No password is required.
func (p *Pad) Info(path string) (*Info, error) {
	raw, _, err := p.readRaw(path)
	if err != nil {
		return nil, err
	}

	info := &Info{Path: path, Size: int64(len(raw))}
	h, err := container.Inspect(raw)
	switch {
	case err == nil:
		info.Locked = true
		info.Header = h
	case errors.Is(err, container.ErrNotContainer), errors.Is(err, container.ErrInvalidParameters):
	default:
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	info.Entry, err = p.LookupEntry(path)
	if err != nil {
		p.log.WithError(err).Warn("failed to read catalog")
	}
	return info, nil
}

// Status checks every cataloged document against the disk (no password
// required).
func (p *Pad) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := &StatusInfo{
		Catalog:   p.opts.Catalog,
		Documents: make([]DocumentStatus, 0),
		Algorithm: "WinZip AES-256 (" + p.opts.Version.String() + ")",
	}
	if !p.catalogExists() {
		return status, nil
	}

	db, err := storage.Open(p.catalog)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// Not critical
	status.Created, _ = db.GetCreated()
	status.Modified, _ = db.GetModified()

	entries, err := db.ListDocuments()
	if err != nil {
		return nil, err
	}

	var unlocked, locked []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Skip entries that point outside the workspace (tampered catalog)
		validPath, err := p.validator.ValidateExistingPath(entry.Path)
		if err != nil {
			p.log.WithField("path", entry.Path).Warn("skipping invalid catalog entry")
			continue
		}

		ds := DocumentStatus{Path: validPath, Entry: entry}
		status.TotalSize += entry.Size

		isLocked, err := p.IsLocked(validPath)
		switch {
		case os.IsNotExist(err):
			ds.State = StateMissing
			status.MissingCount++
		case err != nil:
			ds.State = StateError
		case isLocked:
			ds.State = StateLocked
			status.LockedCount++
			ds.Drift = !entry.Locked || p.containerChanged(validPath, &entry)
			locked = append(locked, validPath)
		default:
			ds.State = StateUnlocked
			status.UnlockedCount++
			ds.Drift = entry.Locked
			unlocked = append(unlocked, validPath)
		}
		status.Documents = append(status.Documents, ds)
	}

	gitStatus, err := git.CheckGitIntegration(p.validator.Dir(), p.opts.Catalog, unlocked, locked)
	if err == nil && gitStatus.IsRepo {
		status.GitStatus = gitStatus
	}

	return status, nil
}

// containerChanged reports whether a locked file differs from the sealed
// parameters in its catalog entry.
func (p *Pad) containerChanged(path string, entry *storage.DocumentEntry) bool {
	info, err := p.validator.StatInRoot(path)
	if err != nil {
		return true
	}
	return entry.ContainerSize != 0 && info.Size() != entry.ContainerSize
}

// LookupEntry returns the catalog entry for path, or nil when the catalog
// or the entry does not exist.
func (p *Pad) LookupEntry(path string) (*storage.DocumentEntry, error) {
	if !p.catalogExists() {
		return nil, nil
	}
	db, err := storage.Open(p.catalog)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.GetDocument(path)
}

// DocumentID returns the stable catalog ID for path, cataloging the
// document if needed. The ID keys the keyring entry.
func (p *Pad) DocumentID(path string) (string, error) {
	entry, err := p.LookupEntry(path)
	if err != nil {
		return "", err
	}
	if entry != nil {
		return entry.ID, nil
	}

	info, err := p.Info(path)
	if err != nil {
		return "", err
	}
	entry, err = p.record(path, true, func(e *storage.DocumentEntry) {
		if info.Header == nil {
			e.MarkUnlocked(info.Size)
			return
		}
		h := info.Header
		e.Size = int64(h.UncompressedSize)
		e.MarkLocked(int64(h.Size), h.Strength.Bits(), int(h.Version), h.CRC32, h.Modified)
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

// Forget removes a document from the catalog. The file itself is left
// alone. The removed entry is returned so its keyring entry can be dropped.
func (p *Pad) Forget(path string) (*storage.DocumentEntry, error) {
	if !p.catalogExists() {
		return nil, ErrNoCatalog
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
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCataloged, path)
	}
	if _, err := db.RemoveDocument(path); err != nil {
		return nil, err
	}

	p.log.WithField("path", path).Debug("forgot document")
	return entry, nil
}

// Compact rewrites the catalog to reclaim free pages.
func (p *Pad) Compact() error {
	if !p.catalogExists() {
		return ErrNoCatalog
	}
	db, err := storage.Open(p.catalog)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Compact()
}
