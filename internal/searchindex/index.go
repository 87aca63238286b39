// Package searchindex stores photo documents and answers label searches.
//
// OpenSearch is the production backend. Bleve backs local runs and tests, and
// Disabled stands in when no endpoint is configured.
package searchindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/photo-search/internal/photo"
)

// DefaultSearchLimit caps the number of hits a search returns.
const DefaultSearchLimit = 50

// ErrNotConfigured is returned by Disabled for calls it cannot answer.
var ErrNotConfigured = errors.New("search index not configured")

// PutResult says whether a write created or replaced a document.
type PutResult int

const (
	Created PutResult = iota + 1
	Updated
)

func (r PutResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Hit is a document returned from the index with its id.
type Hit struct {
	ID       string
	Document photo.Document
}

// Page is one batch of a List scan. Next is the cursor for the following
// batch and is empty once the scan is complete.
type Page struct {
	Hits []Hit
	Next string
}

// pageOf builds a Page from hits sorted by id. A short page ends the scan.
func pageOf(hits []Hit, size int) Page {
	p := Page{Hits: hits}
	if size > 0 && len(hits) == size {
		p.Next = hits[len(hits)-1].ID
	}
	return p
}

// Index is the search index used by both Lambdas.
type Index interface {
	Exists(ctx context.Context, id string) (bool, error)
	Put(ctx context.Context, id string, doc photo.Document) (PutResult, error)
	// Search returns documents whose labels match any keyword.
	Search(ctx context.Context, keywords []string, limit int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	// List returns up to size documents with ids after the cursor, in id
	// order. An empty cursor starts from the beginning.
	List(ctx context.Context, after string, size int) (Page, error)
	Delete(ctx context.Context, id string) error
}

// Error is a non-success response from the index.
type Error struct {
	StatusCode int
	Message    string
	Op         string
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the index.
func IsNotFound(err error) bool {
	var idxErr *Error
	if errors.As(err, &idxErr) {
		return idxErr.StatusCode == 404
	}
	return false
}

// Documents drops the ids from hits.
func Documents(hits []Hit) []photo.Document {
	docs := make([]photo.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Document)
	}
	return docs
}

var (
	_ Index = (*OpenSearch)(nil)
	_ Index = (*Bleve)(nil)
	_ Index = Disabled{}
)
