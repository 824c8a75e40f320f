// Package savegame persists game saves by name.
package savegame

import (
	"context"
	"errors"
	"time"

	"github.com/nfrund/hexgames/internal/game"
)

var (
	// ErrNotFound is returned for a save that does not exist.
	ErrNotFound = errors.New("save not found")
	// ErrInvalidName is returned for names that are not plain file names.
	ErrInvalidName = errors.New("invalid save name")
)

// Info describes a stored save.
type Info struct {
	Name     string    `json:"name"`
	Scenario string    `json:"scenario,omitempty"`
	Turn     game.Turn `json:"turn"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store defines the interface for a save backend.
type Store interface {
	Save(ctx context.Context, name string, sv game.Save) (Info, error)
	Load(ctx context.Context, name string) (game.Save, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, name string) error
}
