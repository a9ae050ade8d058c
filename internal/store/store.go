package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docscope/internal/doctree"
)

// ErrNotFound is returned when a document is not stored.
var ErrNotFound = errors.New("document not found")

// Record is everything persisted for one document.
type Record struct {
	Meta     doctree.Meta      `json:"meta"`
	Spans    []doctree.Span    `json:"spans"`
	Outline  doctree.Outline   `json:"outline"`
	Sections []doctree.Section `json:"sections"`
}

// Store persists spans, outlines and sections keyed by document name.
// Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Meta(ctx context.Context, name string) (*doctree.Meta, error)
	Spans(ctx context.Context, name string) ([]doctree.Span, error)
	Outline(ctx context.Context, name string) (*doctree.Outline, error)
	Sections(ctx context.Context, name string) ([]doctree.Section, error)
	List(ctx context.Context) ([]doctree.Meta, error)
	// ByHash returns the name of the document with the given content hash.
	ByHash(ctx context.Context, hash string) (string, error)
	Delete(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	Backend         string
	Dir             string
	PathstoreURL    string
	PathstoreAPIKey string
	MongoURI        string
	MongoDatabase   string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "memory":
		return NewMemory(), nil
	case "", "file":
		return NewFile(opts.Dir)
	case "pathstore":
		return NewPathstore(opts.PathstoreURL, opts.PathstoreAPIKey), nil
	case "mongo":
		return NewMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", opts.Backend)
	}
}

func validate(rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.Meta.Name) == "" {
		return fmt.Errorf("record has no document name")
	}
	return nil
}

var (
	nonSlugRe = regexp.MustCompile(`[^a-z0-9-]`)
	multiDash = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// Key maps a document name to a stable, path-safe key. The hash suffix
// keeps names that slugify alike apart.
func Key(name string) string {
	sum := sha256.Sum256([]byte(name))
	slug := Slugify(name)
	if slug == "" {
		slug = "doc"
	}
	return slug + "-" + hex.EncodeToString(sum[:4])
}
