package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadOnWrite(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".plugsmith"), 0o755))

	cfg := Default()
	require.NoError(t, Save(ws, cfg))

	reloaded := make(chan struct{}, 1)
	w, err := NewWatcher(ws, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Overwrite the config file and wait for the reload callback.
	cfg.Name = "renamed"
	require.NoError(t, Save(ws, cfg))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	ws := t.TempDir()
	w, err := NewWatcher(ws, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
