package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/heading"
	"github.com/dgallion1/docscope/internal/store"
)

// docName returns the unescaped {name} route parameter.
func docName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (s *Server) storeError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found: "+name, http.StatusNotFound)
		return
	}
	s.log.Error("store error", "document", name, "error", err)
	jsonError(w, "store error: "+err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, "", err)
		return
	}
	if docs == nil {
		docs = []doctree.Meta{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	if err := s.store.Delete(r.Context(), name); err != nil {
		s.storeError(w, name, err)
		return
	}
	s.log.Info("document deleted", "document", name)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	outline, err := s.store.Outline(r.Context(), name)
	if err != nil {
		s.storeError(w, name, err)
		return
	}
	if outline.Headings == nil {
		outline.Headings = []doctree.Heading{}
	}
	writeJSON(w, http.StatusOK, outline)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	sections, err := s.store.Sections(r.Context(), name)
	if err != nil {
		s.storeError(w, name, err)
		return
	}
	if sections == nil {
		sections = []doctree.Section{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": name, "sections": sections})
}

// handleHeadings lists bold spans by font-size rank, independent of the
// stored outline.
func (s *Server) handleHeadings(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	spans, err := s.store.Spans(r.Context(), name)
	if err != nil {
		s.storeError(w, name, err)
		return
	}
	if len(spans) == 0 {
		jsonError(w, "no spans found for document: "+name, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": name, "headings": heading.Styled(spans)})
}
