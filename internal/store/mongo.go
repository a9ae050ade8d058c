package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dgallion1/docscope/internal/doctree"
)

// One collection per artifact, all keyed by pdf_name.
const (
	colDocuments = "documents"
	colSpans     = "spans"
	colOutlines  = "outlines"
	colSections  = "sections"
)

// Mongo stores documents in MongoDB, one collection per artifact, keyed
// by pdf_name.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

type spanDoc struct {
	PDFName    string    `bson:"pdf_name"`
	Seq        int       `bson:"seq"`
	Page       int       `bson:"page"`
	Text       string    `bson:"text"`
	FontName   string    `bson:"font_name"`
	FontSize   float64   `bson:"font_size"`
	FontWeight string    `bson:"font_weight"`
	BBox       []float64 `bson:"bbox,omitempty"`
}

type headingDoc struct {
	Level string `bson:"level"`
	Text  string `bson:"text"`
	Page  int    `bson:"page"`
}

type outlineDoc struct {
	PDFName string       `bson:"pdf_name"`
	Title   string       `bson:"title"`
	Outline []headingDoc `bson:"outline"`
}

type sectionDoc struct {
	PDFName   string `bson:"pdf_name"`
	Seq       int    `bson:"seq"`
	SectionID string `bson:"section_id"`
	Level     string `bson:"level"`
	Text      string `bson:"text"`
	PageStart int    `bson:"page_start"`
	PageEnd   int    `bson:"page_end"`
}

func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = "docscope"
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	m := &Mongo{client: client, db: client.Database(database)}
	if err := m.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colDocuments: {
			{Keys: bson.D{{Key: "pdf_name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "content_hash", Value: 1}}},
		},
		colSpans:    {{Keys: bson.D{{Key: "pdf_name", Value: 1}, {Key: "page", Value: 1}}}},
		colOutlines: {{Keys: bson.D{{Key: "pdf_name", Value: 1}}}},
		colSections: {{Keys: bson.D{{Key: "pdf_name", Value: 1}, {Key: "section_id", Value: 1}}}},
	}
	for col, models := range indexes {
		if _, err := m.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

func (m *Mongo) Save(ctx context.Context, rec *Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	name := rec.Meta.Name
	filter := bson.D{{Key: "pdf_name", Value: name}}
	for _, col := range []string{colSpans, colOutlines, colSections} {
		if _, err := m.db.Collection(col).DeleteMany(ctx, filter); err != nil {
			return fmt.Errorf("clear %s for %s: %w", col, name, err)
		}
	}

	if len(rec.Spans) > 0 {
		docs := make([]any, len(rec.Spans))
		for i, s := range rec.Spans {
			d := spanDoc{
				PDFName: name, Seq: i, Page: s.Page, Text: s.Text,
				FontName: s.FontName, FontSize: s.FontSize, FontWeight: string(s.FontWeight),
			}
			if s.BBox != nil {
				d.BBox = s.BBox[:]
			}
			docs[i] = d
		}
		if _, err := m.db.Collection(colSpans).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert spans: %w", err)
		}
	}

	od := outlineDoc{PDFName: name, Title: rec.Outline.Title, Outline: make([]headingDoc, len(rec.Outline.Headings))}
	for i, h := range rec.Outline.Headings {
		od.Outline[i] = headingDoc{Level: h.Level.String(), Text: h.Text, Page: h.Page}
	}
	if _, err := m.db.Collection(colOutlines).InsertOne(ctx, od); err != nil {
		return fmt.Errorf("insert outline: %w", err)
	}

	if len(rec.Sections) > 0 {
		docs := make([]any, len(rec.Sections))
		for i, s := range rec.Sections {
			docs[i] = sectionDoc{
				PDFName: name, Seq: i, SectionID: s.ID, Level: s.Level.String(),
				Text: s.Text, PageStart: s.PageStart, PageEnd: s.PageEnd,
			}
		}
		if _, err := m.db.Collection(colSections).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert sections: %w", err)
		}
	}

	_, err := m.db.Collection(colDocuments).ReplaceOne(ctx, filter, rec.Meta, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (m *Mongo) Meta(ctx context.Context, name string) (*doctree.Meta, error) {
	var meta doctree.Meta
	err := m.db.Collection(colDocuments).FindOne(ctx, bson.D{{Key: "pdf_name", Value: name}}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &meta, nil
}

func (m *Mongo) find(ctx context.Context, col, name string, dst any) error {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := m.db.Collection(col).Find(ctx, bson.D{{Key: "pdf_name", Value: name}}, opts)
	if err != nil {
		return fmt.Errorf("find %s: %w", col, err)
	}
	if err := cur.All(ctx, dst); err != nil {
		return fmt.Errorf("decode %s: %w", col, err)
	}
	return nil
}

func (m *Mongo) Spans(ctx context.Context, name string) ([]doctree.Span, error) {
	if _, err := m.Meta(ctx, name); err != nil {
		return nil, err
	}
	var docs []spanDoc
	if err := m.find(ctx, colSpans, name, &docs); err != nil {
		return nil, err
	}
	spans := make([]doctree.Span, len(docs))
	for i, d := range docs {
		spans[i] = doctree.Span{
			Page: d.Page, Text: d.Text, FontName: d.FontName,
			FontSize: d.FontSize, FontWeight: doctree.FontWeight(d.FontWeight),
		}
		if len(d.BBox) == 4 {
			var bb [4]float64
			copy(bb[:], d.BBox)
			spans[i].BBox = &bb
		}
	}
	return spans, nil
}

func (m *Mongo) Outline(ctx context.Context, name string) (*doctree.Outline, error) {
	var od outlineDoc
	err := m.db.Collection(colOutlines).FindOne(ctx, bson.D{{Key: "pdf_name", Value: name}}).Decode(&od)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find outline: %w", err)
	}
	o := &doctree.Outline{Title: od.Title, Headings: make([]doctree.Heading, 0, len(od.Outline))}
	for _, h := range od.Outline {
		lvl, err := doctree.ParseLevel(h.Level)
		if err != nil {
			return nil, fmt.Errorf("outline of %s: %w", name, err)
		}
		o.Headings = append(o.Headings, doctree.Heading{Level: lvl, Text: h.Text, Page: h.Page})
	}
	return o, nil
}

func (m *Mongo) Sections(ctx context.Context, name string) ([]doctree.Section, error) {
	if _, err := m.Meta(ctx, name); err != nil {
		return nil, err
	}
	var docs []sectionDoc
	if err := m.find(ctx, colSections, name, &docs); err != nil {
		return nil, err
	}
	sections := make([]doctree.Section, len(docs))
	for i, d := range docs {
		lvl, err := doctree.ParseLevel(d.Level)
		if err != nil {
			return nil, fmt.Errorf("section %s of %s: %w", d.SectionID, name, err)
		}
		sections[i] = doctree.Section{ID: d.SectionID, Level: lvl, Text: d.Text, PageStart: d.PageStart, PageEnd: d.PageEnd}
	}
	return sections, nil
}

func (m *Mongo) List(ctx context.Context) ([]doctree.Meta, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pdf_name", Value: 1}})
	cur, err := m.db.Collection(colDocuments).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var out []doctree.Meta
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return out, nil
}

func (m *Mongo) ByHash(ctx context.Context, hash string) (string, error) {
	var meta doctree.Meta
	err := m.db.Collection(colDocuments).FindOne(ctx, bson.D{{Key: "content_hash", Value: hash}}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return meta.Name, nil
}

func (m *Mongo) Delete(ctx context.Context, name string) error {
	filter := bson.D{{Key: "pdf_name", Value: name}}
	res, err := m.db.Collection(colDocuments).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	for _, col := range []string{colSpans, colOutlines, colSections} {
		if _, err := m.db.Collection(col).DeleteMany(ctx, filter); err != nil {
			return fmt.Errorf("delete %s: %w", col, err)
		}
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// IsTransient reports whether err is a MongoDB network or timeout failure.
func IsTransient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
