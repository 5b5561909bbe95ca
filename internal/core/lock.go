package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/cryptopad/internal/container"
	"github.com/illarion/cryptopad/internal/crypto"
	"github.com/illarion/cryptopad/internal/git"
	"github.com/illarion/cryptopad/internal/storage"
	"github.com/sirupsen/logrus"
)

// Lock encrypts a plain document in place and catalogs it.
func (p *Pad) Lock(ctx context.Context, path string, password []byte) (*storage.DocumentEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, container.ErrNoPassword
	}

	raw, mode, err := p.readRaw(path)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(raw)

	if _, err := container.Inspect(raw); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLocked, path)
	}

	h, err := p.seal(path, raw, password, mode)
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"path":      path,
		"size":      len(raw),
		"container": h.Size,
		"strength":  h.Strength.String(),
		"version":   h.Version.String(),
	}).Debug("locked document")

	return p.recordLocked(path, h), nil
}

// Unlock decrypts a locked document in place. The catalog keeps the entry
// so the document can be locked again under the same ID.
func (p *Pad) Unlock(ctx context.Context, path string, password []byte) (*storage.DocumentEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := p.Load(path, password)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(doc.Data)

	if !doc.Locked {
		return nil, fmt.Errorf("%w: %s", ErrNotLocked, path)
	}

	if err := p.validator.ReplaceFileInRoot(path, doc.Data, doc.Mode); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.log.WithFields(logrus.Fields{
		"path": path,
		"size": len(doc.Data),
	}).Debug("unlocked document")

	p.warnIfExposed(path)

	entry, err := p.record(path, true, func(e *storage.DocumentEntry) {
		e.MarkUnlocked(int64(len(doc.Data)))
	})
	if err != nil {
		p.log.WithError(err).WithField("path", path).Warn("failed to update catalog")
	}
	return entry, nil
}

// warnIfExposed logs when a freshly decrypted document is visible to git.
func (p *Pad) warnIfExposed(path string) {
	status, err := git.CheckGitIntegration(p.validator.Dir(), p.opts.Catalog, []string{path}, nil)
	if err != nil || !status.Exposed() {
		return
	}
	fields := logrus.Fields{"path": path}
	if len(status.TrackedPlaintext) > 0 {
		p.log.WithFields(fields).Warn("unlocked document is tracked by git; lock it before committing")
		return
	}
	p.log.WithFields(fields).Warn("unlocked document is not in .gitignore")
}

// ChangePassword re-encrypts a locked document under a new password with
// a fresh salt.
func (p *Pad) ChangePassword(ctx context.Context, path string, currentPassword, newPassword []byte) (*storage.DocumentEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(newPassword) == 0 {
		return nil, container.ErrNoPassword
	}

	doc, err := p.Load(path, currentPassword)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(doc.Data)

	if !doc.Locked {
		return nil, fmt.Errorf("%w: %s", ErrNotLocked, path)
	}

	h, err := p.seal(path, doc.Data, newPassword, doc.Mode)
	if err != nil {
		return nil, err
	}

	p.log.WithField("path", path).Debug("changed document password")

	return p.recordLocked(path, h), nil
}

// VerifyPassword checks a password against a locked document without
// decrypting it.
func (p *Pad) VerifyPassword(path string, password []byte) error {
	raw, _, err := p.readRaw(path)
	if err != nil {
		return err
	}
	if err := container.Verify(raw, password); err != nil {
		if errors.Is(err, container.ErrNotContainer) {
			return fmt.Errorf("%w: %s", ErrNotLocked, path)
		}
		return err
	}
	return nil
}
