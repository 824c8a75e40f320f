package script

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Load reads a script file. The script is named after the file without
// its extension.
func Load(fs afero.Fs, path string) (*Script, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, NewScriptError(ErrorTypeNotFound, path, "script not found", err)
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	base := filepath.Base(path)
	return &Script{
		Name:         strings.TrimSuffix(base, filepath.Ext(base)),
		Content:      string(content),
		Path:         path,
		LastModified: info.ModTime(),
		Checksum:     generateChecksum(string(content)),
	}, nil
}

func generateChecksum(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}

// WatchFile calls onChange every time the content of the file at path
// changes, until ctx is done. Writes that leave the content as it was are
// ignored. Editors that save by renaming are handled by watching the parent
// directory.
func WatchFile(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	osFs := afero.NewOsFs()
	var last string
	if s, err := Load(osFs, abs); err == nil {
		last = s.Checksum
	}
	slog.Debug("Watching file for changes", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s, err := Load(osFs, abs)
			if err != nil {
				slog.Debug("File not readable", "path", abs, "op", event.Op.String(), "error", err)
				continue
			}
			if s.Checksum == last {
				continue
			}
			last = s.Checksum
			slog.Debug("File changed", "path", abs, "op", event.Op.String(), "modified", s.LastModified)
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", "path", abs, "error", err)
		}
	}
}
