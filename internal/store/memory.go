package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dgallion1/docscope/internal/doctree"
)

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Save(_ context.Context, rec *Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	cp := *rec
	m.mu.Lock()
	m.records[rec.Meta.Name] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) get(name string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Meta(_ context.Context, name string) (*doctree.Meta, error) {
	rec, err := m.get(name)
	if err != nil {
		return nil, err
	}
	meta := rec.Meta
	return &meta, nil
}

func (m *Memory) Spans(_ context.Context, name string) ([]doctree.Span, error) {
	rec, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return append([]doctree.Span(nil), rec.Spans...), nil
}

func (m *Memory) Outline(_ context.Context, name string) (*doctree.Outline, error) {
	rec, err := m.get(name)
	if err != nil {
		return nil, err
	}
	o := rec.Outline
	o.Headings = append([]doctree.Heading(nil), o.Headings...)
	return &o, nil
}

func (m *Memory) Sections(_ context.Context, name string) ([]doctree.Section, error) {
	rec, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return append([]doctree.Section(nil), rec.Sections...), nil
}

func (m *Memory) List(_ context.Context) ([]doctree.Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]doctree.Meta, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) ByHash(_ context.Context, hash string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, rec := range m.records {
		if rec.Meta.ContentHash == hash {
			return name, nil
		}
	}
	return "", ErrNotFound
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[name]; !ok {
		return ErrNotFound
	}
	delete(m.records, name)
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
