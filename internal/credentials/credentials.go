// Package credentials supplies bearer tokens to the gateway. Tokens are
// issued by an external authentication collaborator that writes them to a
// file; this package never refreshes a token itself.
package credentials

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/lumieapp/lumie-sync/internal/errors"
)

// Provider yields the current bearer token for outbound requests.
type Provider interface {
	// Token returns the current bearer token. It returns ErrUnauthorized
	// when no usable token is available.
	Token() (string, error)
	// Invalidate marks the cached token as rejected by the backend. The
	// provider stays unauthorized until the collaborator writes a fresh
	// token to the file.
	Invalidate()
}

// FileProvider reads the bearer token from a file and hot-reloads it when
// the authentication collaborator rewrites the file.
type FileProvider struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu          sync.RWMutex
	token       string
	invalidated bool
}

// NewFileProvider creates a provider backed by the token file at path.
// A missing file is not an error at construction time; the provider simply
// starts unauthorized.
func NewFileProvider(path string, logger *slog.Logger) (*FileProvider, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create token watcher")
	}

	p := &FileProvider{
		path:    filepath.Clean(path),
		logger:  logger,
		watcher: watcher,
	}
	p.reload()

	// Watch the parent directory so atomic rename-into-place writes are
	// seen even when the file itself is replaced.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return nil, errors.Wrapf(err, errors.CodeInternal, "watch token directory %s", filepath.Dir(p.path))
	}

	return p, nil
}

// Start processes file events until the context is cancelled.
func (p *FileProvider) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-p.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				p.logger.Debug("token file changed, reloading", "path", p.path)
				p.reload()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("token watcher error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (p *FileProvider) Close() error {
	return p.watcher.Close()
}

// Token implements Provider.
func (p *FileProvider) Token() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.invalidated {
		return "", errors.Unauthorized("token rejected by backend")
	}
	if p.token == "" {
		return "", errors.Unauthorized("no token available")
	}
	return p.token, nil
}

// Invalidate implements Provider.
func (p *FileProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.invalidated {
		return
	}
	p.invalidated = true
	p.logger.Warn("bearer token invalidated, waiting for re-authentication", "path", p.path)
}

// reload reads the token file and replaces the cached token. A fresh token
// clears any prior invalidation.
func (p *FileProvider) reload() {
	data, err := os.ReadFile(p.path) //#nosec G304 -- token path comes from config
	if err != nil {
		p.mu.Lock()
		p.token = ""
		p.mu.Unlock()
		if !os.IsNotExist(err) {
			p.logger.Warn("failed to read token file", "path", p.path, "error", err)
		}
		return
	}

	token := strings.TrimSpace(string(data))

	p.mu.Lock()
	changed := token != p.token
	p.token = token
	if changed && token != "" {
		p.invalidated = false
	}
	p.mu.Unlock()

	if changed {
		p.logger.Info("bearer token loaded", "path", p.path)
	}
}

// StaticProvider returns a fixed token. Used in tests.
type StaticProvider struct {
	mu          sync.Mutex
	token       string
	invalidated bool
}

// NewStaticProvider creates a provider with a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// Token implements Provider.
func (p *StaticProvider) Token() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.invalidated || p.token == "" {
		return "", errors.Unauthorized("no token available")
	}
	return p.token, nil
}

// Invalidate implements Provider.
func (p *StaticProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated = true
}

// Invalidated reports whether Invalidate has been called.
func (p *StaticProvider) Invalidated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invalidated
}
