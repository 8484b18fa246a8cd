// Package filerepo keeps every collection as one JSON array on disk.
//
// Each mutation reads the whole array, changes it and renames a temp file over
// the previous file while holding the collection mutex. Writers inside one process
// never lose updates; two processes sharing a directory can.
package filerepo

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"event-portal/internal/domain"
)

type collection[T any] struct {
	mu   sync.Mutex
	path string
}

func newCollection[T any](dir, name string) *collection[T] {
	return &collection[T]{path: filepath.Join(dir, name)}
}

// load must be called with mu held. A missing file is an empty collection.
func (c *collection[T]) load() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage("read "+filepath.Base(c.path), err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, domain.Storage("decode "+filepath.Base(c.path), err)
	}
	return items, nil
}

// save must be called with mu held.
func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return domain.Storage("encode "+filepath.Base(c.path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return domain.Storage("write "+filepath.Base(c.path), err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return domain.Storage("write "+filepath.Base(c.path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return domain.Storage("sync "+filepath.Base(c.path), err)
	}
	if err := tmp.Close(); err != nil {
		return domain.Storage("write "+filepath.Base(c.path), err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return domain.Storage("replace "+filepath.Base(c.path), err)
	}
	return nil
}

func (c *collection[T]) read(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable("read "+filepath.Base(c.path), err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// mutate runs fn on the current items and persists the result unless fn
// reports no change or fails.
func (c *collection[T]) mutate(ctx context.Context, fn func([]T) ([]T, bool, error)) error {
	if err := ctx.Err(); err != nil {
		return domain.Unavailable("write "+filepath.Base(c.path), err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load()
	if err != nil {
		return err
	}
	next, changed, err := fn(items)
	if err != nil || !changed {
		return err
	}
	return c.save(next)
}

// Open prepares dir and returns a store backed by it.
func Open(dir string) (*domain.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.Storage("create data dir", err)
	}
	comments := newCollection[domain.Comment](dir, "comments.json")
	return &domain.Store{
		Registrations: newSubmissions[domain.Registration](dir, "registrations.json", "registration"),
		Showcases:     newSubmissions[domain.Showcase](dir, "showcases.json", "showcase"),
		Posts:         &posts{c: newCollection[postRecord](dir, "posts.json"), comments: comments},
		Comments:      &commentRepo{c: comments},
		Close:         func() error { return nil },
	}, nil
}
