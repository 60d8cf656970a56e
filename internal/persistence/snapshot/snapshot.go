// Package snapshot writes and reads full engine-state exports as
// zstd-compressed JSON. Snapshots are an operator backup surface; the
// journal remains the authoritative audit trail.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/pkg/encoding"
)

// fileVersion guards against reading snapshots from an incompatible
// layout.
const fileVersion = 1

type envelope struct {
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	State     engine.State `json:"state"`
}

// Write stores the state under dir, named by creation time, and
// returns the file path.
func Write(dir string, st engine.State, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("empty snapshot dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("state-%s.json.zst", now.UTC().Format("20060102T150405Z")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	env := envelope{Version: fileVersion, CreatedAt: now.UTC(), State: st}
	if err := encoding.EncodeCompressed(f, env); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, f.Close()
}

// Read loads a snapshot file.
func Read(path string) (engine.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.State{}, err
	}
	defer f.Close()

	var env envelope
	if err := encoding.DecodeCompressed(f, &env); err != nil {
		return engine.State{}, fmt.Errorf("read snapshot: %w", err)
	}
	if env.Version != fileVersion {
		return engine.State{}, fmt.Errorf("unsupported snapshot version %d", env.Version)
	}
	return env.State, nil
}

// Latest returns the newest snapshot path in dir, or "" when none
// exist.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	latest := ""
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zst" {
			continue
		}
		if e.Name() > latest {
			latest = e.Name()
		}
	}
	if latest == "" {
		return "", nil
	}
	return filepath.Join(dir, latest), nil
}
