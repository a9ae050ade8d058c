package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/pathstore"
)

const (
	psDocs   = "docscope/documents"
	psByHash = "docscope/by_hash"
)

// Pathstore keeps each document as four nodes under
// docscope/documents/<key>/ plus a content-hash index node.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(baseURL, apiKey string) *Pathstore {
	return &Pathstore{client: pathstore.NewClient(baseURL, apiKey)}
}

func docPath(name, part string) string {
	return psDocs + "/" + Key(name) + "/" + part
}

func (p *Pathstore) Save(ctx context.Context, rec *Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	name := rec.Meta.Name
	if err := p.client.PutNode(ctx, docPath(name, "spans"), rec.Spans); err != nil {
		return err
	}
	if err := p.client.PutNode(ctx, docPath(name, "outline"), rec.Outline); err != nil {
		return err
	}
	if err := p.client.PutNode(ctx, docPath(name, "sections"), rec.Sections); err != nil {
		return err
	}
	// meta is written last; its presence marks the document complete.
	if err := p.client.PutNode(ctx, docPath(name, "meta"), rec.Meta); err != nil {
		return err
	}
	if rec.Meta.ContentHash != "" {
		if err := p.client.PutNode(ctx, psByHash+"/"+rec.Meta.ContentHash, name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pathstore) get(ctx context.Context, name, part string, dst any) error {
	node, err := p.client.GetNode(ctx, docPath(name, part))
	if err != nil {
		return err
	}
	if node == nil {
		return ErrNotFound
	}
	return node.Decode(dst)
}

func (p *Pathstore) Meta(ctx context.Context, name string) (*doctree.Meta, error) {
	var m doctree.Meta
	if err := p.get(ctx, name, "meta", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *Pathstore) Spans(ctx context.Context, name string) ([]doctree.Span, error) {
	var spans []doctree.Span
	if err := p.get(ctx, name, "spans", &spans); err != nil {
		return nil, err
	}
	return spans, nil
}

func (p *Pathstore) Outline(ctx context.Context, name string) (*doctree.Outline, error) {
	var o doctree.Outline
	if err := p.get(ctx, name, "outline", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (p *Pathstore) Sections(ctx context.Context, name string) ([]doctree.Section, error) {
	var sections []doctree.Section
	if err := p.get(ctx, name, "sections", &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (p *Pathstore) List(ctx context.Context) ([]doctree.Meta, error) {
	nodes, err := p.client.ListChildren(ctx, psDocs, 0)
	if err != nil {
		return nil, err
	}
	var out []doctree.Meta
	for _, n := range nodes {
		if !strings.HasSuffix(n.Key, "/meta") {
			continue
		}
		var m doctree.Meta
		if err := n.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *Pathstore) ByHash(ctx context.Context, hash string) (string, error) {
	node, err := p.client.GetNode(ctx, psByHash+"/"+hash)
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", ErrNotFound
	}
	var name string
	if err := node.Decode(&name); err != nil {
		return "", err
	}
	return name, nil
}

func (p *Pathstore) Delete(ctx context.Context, name string) error {
	meta, err := p.Meta(ctx, name)
	if err != nil {
		return err
	}
	if err := p.client.DeleteNode(ctx, psDocs+"/"+Key(name), true); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if meta.ContentHash != "" {
		if err := p.client.DeleteNode(ctx, psByHash+"/"+meta.ContentHash, false); err != nil {
			return fmt.Errorf("delete hash index for %s: %w", name, err)
		}
	}
	return nil
}

func (p *Pathstore) Close(context.Context) error {
	p.client.Close()
	return nil
}
