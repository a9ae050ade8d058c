package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/dgallion1/docscope/internal/doctree"
)

const lockRetry = 50 * time.Millisecond

// File stores one JSON file per document under a directory. A lock file
// serializes writers across goroutines and processes.
type File struct {
	dir      string
	lockPath string
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = "data"
	}
	docs := filepath.Join(dir, "documents")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &File{dir: docs, lockPath: filepath.Join(dir, ".docscope.lock")}, nil
}

func (f *File) path(name string) string {
	return filepath.Join(f.dir, Key(name)+".json")
}

func (f *File) lock(ctx context.Context, shared bool) (func(), error) {
	l := flock.New(f.lockPath)
	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = l.TryRLockContext(ctx, lockRetry)
	} else {
		ok, err = l.TryLockContext(ctx, lockRetry)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire store lock: %s is busy", f.lockPath)
	}
	return func() { _ = l.Unlock() }, nil
}

func (f *File) Save(ctx context.Context, rec *Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	unlock, err := f.lock(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(rec.Meta.Name)); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

func (f *File) load(ctx context.Context, name string) (*Record, error) {
	unlock, err := f.lock(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return readRecord(f.path(name))
}

func readRecord(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

func (f *File) Meta(ctx context.Context, name string) (*doctree.Meta, error) {
	rec, err := f.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rec.Meta, nil
}

func (f *File) Spans(ctx context.Context, name string) ([]doctree.Span, error) {
	rec, err := f.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return rec.Spans, nil
}

func (f *File) Outline(ctx context.Context, name string) (*doctree.Outline, error) {
	rec, err := f.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rec.Outline, nil
}

func (f *File) Sections(ctx context.Context, name string) ([]doctree.Section, error) {
	rec, err := f.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return rec.Sections, nil
}

func (f *File) List(ctx context.Context) ([]doctree.Meta, error) {
	unlock, err := f.lock(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}
	var out []doctree.Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := readRecord(filepath.Join(f.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *File) ByHash(ctx context.Context, hash string) (string, error) {
	metas, err := f.List(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range metas {
		if m.ContentHash == hash {
			return m.Name, nil
		}
	}
	return "", ErrNotFound
}

func (f *File) Delete(ctx context.Context, name string) error {
	unlock, err := f.lock(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	err = os.Remove(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (f *File) Close(context.Context) error { return nil }
