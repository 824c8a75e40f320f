package savegame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/nfrund/hexgames/internal/game"
)

const ext = ".json"

var (
	validate = validator.New()
	namePat  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

func init() {
	if err := validate.RegisterValidation("savename", func(fl validator.FieldLevel) bool {
		return namePat.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register savename validation: %v", err))
	}
}

// AferoStore keeps one JSON file per save in a directory of an afero
// filesystem.
type AferoStore struct {
	fs  afero.Fs
	dir string
}

// NewAferoStore creates a store rooted at dir.
func NewAferoStore(fs afero.Fs, dir string) *AferoStore {
	return &AferoStore{fs: fs, dir: dir}
}

func (s *AferoStore) path(name string) (string, error) {
	name = strings.TrimSuffix(name, ext)
	if err := validate.Var(name, "required,max=64,savename"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+ext), nil
}

// Save writes sv under name, replacing an existing save. An empty name
// is replaced by a generated one, returned in the Info.
func (s *AferoStore) Save(ctx context.Context, name string, sv game.Save) (Info, error) {
	if name == "" {
		name = uuid.NewString()
	}
	path, err := s.path(name)
	if err != nil {
		return Info{}, err
	}
	data, err := json.MarshalIndent(sv, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode save: %w", err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return Info{}, err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return Info{}, err
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return Info{}, err
	}
	return s.info(path, sv)
}

// Load reads the save stored under name.
func (s *AferoStore) Load(ctx context.Context, name string) (game.Save, error) {
	path, err := s.path(name)
	if err != nil {
		return game.Save{}, err
	}
	return s.read(path)
}

func (s *AferoStore) read(path string) (game.Save, error) {
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return game.Save{}, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return game.Save{}, err
	}
	var sv game.Save
	if err := json.Unmarshal(data, &sv); err != nil {
		return game.Save{}, fmt.Errorf("decode save %s: %w", filepath.Base(path), err)
	}
	if sv.Version > game.SaveVersion {
		return game.Save{}, fmt.Errorf("%w: %d", game.ErrUnsupportedVersion, sv.Version)
	}
	return sv, nil
}

func (s *AferoStore) info(path string, sv game.Save) (Info, error) {
	st, err := s.fs.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:     strings.TrimSuffix(filepath.Base(path), ext),
		Scenario: sv.Scenario,
		Turn:     sv.Turn,
		Size:     st.Size(),
		Modified: st.ModTime(),
	}, nil
}

// List describes every readable save, newest first. Files that fail to
// decode are skipped.
func (s *AferoStore) List(ctx context.Context) ([]Info, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []Info{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, e.Name())
		sv, err := s.read(path)
		if err != nil {
			continue
		}
		info, err := s.info(path, sv)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Modified.Equal(out[b].Modified) {
			return out[a].Modified.After(out[b].Modified)
		}
		return out[a].Name < out[b].Name
	})
	return out, nil
}

// Delete removes the save stored under name.
func (s *AferoStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return nil
}
