// Package store loads and saves the single sanctuary document.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sanctuary.game/internal/persistence/migrate"
	"sanctuary.game/internal/persistence/snapshot"
)

// Store persists the save document. Load returns (nil, nil) when nothing was saved yet.
type Store interface {
	Load() (*snapshot.SaveV1, error)
	Save(s snapshot.SaveV1) error
}

const fileSuffix = ".snap.zst"

// FileStore keeps timestamped snapshot files in Dir and loads the newest one.
type FileStore struct {
	Dir     string
	Keep    int // files retained after a save; <=0 keeps 3
	Migrate migrate.Options
}

func NewFileStore(dir string, opt migrate.Options) *FileStore {
	return &FileStore{Dir: dir, Keep: 3, Migrate: opt}
}

func (f *FileStore) path(savedAtMs int64) string {
	return filepath.Join(f.Dir, fmt.Sprintf("save-%015d%s", savedAtMs, fileSuffix))
}

// files lists snapshot files oldest first.
func (f *FileStore) files() ([]string, error) {
	ents, err := os.ReadDir(f.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "save-") || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(f.Dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Latest returns the path of the newest snapshot file, or "".
func (f *FileStore) Latest() (string, error) {
	files, err := f.files()
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[len(files)-1], nil
}

func (f *FileStore) Load() (*snapshot.SaveV1, error) {
	p, err := f.Latest()
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", f.Dir, err)
	}
	if p == "" {
		return nil, nil
	}
	s, err := LoadFile(p, f.Migrate)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *FileStore) Save(s snapshot.SaveV1) error {
	if err := snapshot.WriteFile(f.path(s.LastSaveTime), s); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	keep := f.Keep
	if keep <= 0 {
		keep = 3
	}
	files, err := f.files()
	if err != nil {
		return nil
	}
	for len(files) > keep {
		_ = os.Remove(files[0])
		files = files[1:]
	}
	return nil
}

// LoadFile runs the full load pipeline on one file: version gate, migrations, schema.
func LoadFile(path string, opt migrate.Options) (snapshot.SaveV1, error) {
	h, body, err := snapshot.ReadFileRaw(path)
	if err != nil {
		return snapshot.SaveV1{}, fmt.Errorf("store: %s: %w", filepath.Base(path), err)
	}
	s, err := migrate.Decode(h, body, opt)
	if err != nil {
		return snapshot.SaveV1{}, fmt.Errorf("store: %s: %w", filepath.Base(path), err)
	}
	return s, nil
}
