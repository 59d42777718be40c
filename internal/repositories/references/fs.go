package references

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/filex"
)

// FSStore keeps references as files in Dir.
type FSStore struct {
	Dir string
}

func NewFSStore(dataDir string) (*FSStore, error) {
	dir, err := filex.EnsureDir(dataDir, "faces")
	if err != nil {
		return nil, err
	}
	return &FSStore{Dir: dir}, nil
}

func (s *FSStore) path(principal string) string {
	return filepath.Join(s.Dir, objectName(principal))
}

func (s *FSStore) Save(ctx context.Context, principal string, image []byte) error {
	if err := filex.WriteFileAtomic(s.path(principal), image, 0o600); err != nil {
		return fmt.Errorf("save reference: %w", err)
	}
	return nil
}

func (s *FSStore) Load(ctx context.Context, principal string) ([]byte, error) {
	data, err := os.ReadFile(s.path(principal))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("load reference: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(ctx context.Context, principal string) error {
	err := os.Remove(s.path(principal))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete reference: %w", err)
	}
	return nil
}

func (s *FSStore) DeleteAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("list references: %w", err)
	}

	n := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, fmt.Errorf("delete reference: %w", err)
		}
		n++
	}
	return n, nil
}
