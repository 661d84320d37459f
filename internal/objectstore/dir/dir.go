package dir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"docvec/internal/reader"
)

// Store serves source documents from a directory tree.
type Store struct {
	fs   afero.Fs
	root string
}

// New returns a store rooted at root on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, root string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, root: root}
}

// List walks the tree and maps each supported file's base name to its path.
// The first path in lexical walk order wins for duplicate names.
func (s *Store) List(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	err := afero.Walk(s.fs, s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := filepath.Base(p)
		if !reader.Supported(name) {
			return nil
		}
		if _, ok := out[name]; !ok {
			out[name] = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dir: list %s: %w", s.root, err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, key)
	if err != nil {
		return nil, fmt.Errorf("dir: read %s: %w", key, err)
	}
	return data, nil
}
