package credentials

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumieapp/lumie-sync/internal/errors"
)

func setupProvider(t *testing.T) (*FileProvider, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "token")

	p, err := NewFileProvider(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = p.Start(ctx) }()

	return p, path
}

func waitForToken(t *testing.T, p *FileProvider, want string) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		got, err := p.Token()
		if err == nil && got == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("token never became %q (last: %q, err: %v)", want, got, err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFileProvider_MissingFileIsUnauthorized(t *testing.T) {
	p, _ := setupProvider(t)

	_, err := p.Token()
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestFileProvider_PicksUpWrittenToken(t *testing.T) {
	p, path := setupProvider(t)

	require.NoError(t, os.WriteFile(path, []byte("bearer-abc\n"), 0o600))
	waitForToken(t, p, "bearer-abc")
}

func TestFileProvider_InvalidateUntilRotated(t *testing.T) {
	p, path := setupProvider(t)

	require.NoError(t, os.WriteFile(path, []byte("bearer-old"), 0o600))
	waitForToken(t, p, "bearer-old")

	p.Invalidate()
	_, err := p.Token()
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	// Rewriting the same token keeps the provider unauthorized; only a
	// fresh token clears the invalidation.
	require.NoError(t, os.WriteFile(path, []byte("bearer-new"), 0o600))
	waitForToken(t, p, "bearer-new")
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider("tok")

	got, err := p.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	p.Invalidate()
	_, err = p.Token()
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
	assert.True(t, p.Invalidated())
}
