package lspserver

import (
	"slices"
	"strings"
	"sync"
)

// Document is an immutable snapshot of an open editor buffer.
// The store replaces the whole value on every update, so a returned
// *Document never changes under the caller.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Content    string
}

// DocumentStore tracks documents the client has opened.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open registers a document with its initial content.
func (s *DocumentStore) Open(uri, languageID string, version int32, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Content:    text,
	}
}

// Update replaces the content of an open document. A version of 0 keeps the
// current version (didSave carries no version). Updates for documents that
// were never opened are dropped.
func (s *DocumentStore) Update(uri string, version int32, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.docs[uri]
	if !ok {
		return
	}
	next := *old
	next.Content = text
	if version != 0 {
		next.Version = version
	}
	s.docs[uri] = &next
}

// Get returns the current snapshot of a document, or nil if it is not open.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// All returns snapshots of every open document, ordered by URI.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		all = append(all, doc)
	}
	slices.SortFunc(all, func(a, b *Document) int {
		return strings.Compare(a.URI, b.URI)
	})
	return all
}
