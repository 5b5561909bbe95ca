package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/illarion/cryptopad/internal/storage"
	"github.com/sirupsen/logrus"
)

// EditResult describes the outcome of an edit session.
type EditResult struct {
	Path       string
	Changed    bool // something was written
	Locked     bool // the written document is a container
	Conflict   bool // the document changed on disk during the edit
	Resolution ConflictResolution
	SavedAs    string // where the edit went when both versions were kept
	Entry      *storage.DocumentEntry
}

// Cat returns the decoded contents of a document. The caller clears the
// returned buffer.
func (p *Pad) Cat(path string, password []byte) ([]byte, error) {
	doc, err := p.Load(path, password)
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// Edit decrypts a document to a private temp file, runs the editor on it
// and writes the result back. A locked document is re-sealed with the same
// password. A plain or missing document is sealed when password is set,
// which is how protection starts.
func (p *Pad) Edit(ctx context.Context, path string, password []byte, strategy MergeStrategy) (*EditResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	before, mode, err := p.readRaw(path)
	isNew := errors.Is(err, fs.ErrNotExist)
	if err != nil && !isNew {
		return nil, err
	}

	original, h, err := decode(before, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	locked := h != nil
	if locked {
		defer crypto.ClearBytes(original)
	}
	if isNew && len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}

	tmpName, err := createTempFile("cryptopad-edit", path, original)
	if err != nil {
		return nil, err
	}
	defer scrubTempFile(tmpName)

	p.log.WithFields(logrus.Fields{"path": path, "locked": locked}).Debug("starting editor")

	if err := invokeEditor(p.opts.Editor, tmpName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEditAborted, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	defer crypto.ClearBytes(edited)

	result := &EditResult{Path: path}
	sealing := locked || len(password) > 0
	if !isNew && CompareFiles(edited, original) && (locked || !sealing) {
		return result, nil
	}

	data := edited
	if !isNew {
		resolved, err := p.checkConcurrent(path, before, edited, password, strategy, result)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return result, nil
		}
		data = resolved
	}

	var savePassword []byte
	if sealing {
		savePassword = password
	}
	if err := p.saveMode(path, data, savePassword, mode); err != nil {
		return nil, err
	}
	result.Changed = true
	result.Locked = sealing
	result.Entry, _ = p.LookupEntry(path)

	p.log.WithFields(logrus.Fields{
		"path":   path,
		"size":   len(data),
		"locked": sealing,
	}).Debug("saved edited document")

	return result, nil
}

// checkConcurrent compares the file on disk with what was read before the
// editor started. It returns the data to save, or nil when nothing should
// be written to path.
func (p *Pad) checkConcurrent(path string, before, edited, password []byte, strategy MergeStrategy, result *EditResult) ([]byte, error) {
	now, _, err := p.readRaw(path)
	if errors.Is(err, fs.ErrNotExist) {
		p.log.WithField("path", path).Warn("document was removed during the edit; writing it again")
		return edited, nil
	}
	if err != nil {
		return nil, err
	}
	if bytes.Equal(now, before) {
		return edited, nil
	}

	disk, h, err := decode(now, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConcurrentChange, path, err)
	}
	if h != nil {
		defer crypto.ClearBytes(disk)
	}

	result.Conflict = true
	res, err := HandleConflict(path, edited, disk, strategy, p.opts.Editor)
	if err != nil {
		return nil, err
	}
	result.Resolution = res.Resolution

	switch res.Resolution {
	case ResolutionKeepMine:
		return edited, nil
	case ResolutionEditMerged:
		return res.MergedData, nil
	case ResolutionKeepBoth:
		minePath := path + MineSuffix
		if err := p.Save(minePath, edited, password); err != nil {
			return nil, err
		}
		result.SavedAs = minePath
		result.Changed = true
		result.Locked = len(password) > 0
	}
	return nil, nil
}

// saveMode is Save with the file mode captured before the edit.
func (p *Pad) saveMode(path string, data, password []byte, mode os.FileMode) error {
	if mode == 0 {
		return p.Save(path, data, password)
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

// Diff returns a unified diff of the decoded contents of two documents,
// each decoded with its own password. An empty string means they match.
func (p *Pad) Diff(pathA string, passwordA []byte, pathB string, passwordB []byte) (string, error) {
	a, err := p.Load(pathA, passwordA)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(a.Data)

	b, err := p.Load(pathB, passwordB)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(b.Data)

	return GenerateUnifiedDiff(pathA, pathB, a.Data, b.Data)
}
