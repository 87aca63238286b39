package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/photo-search/internal/photo"
)

// bleveDocument is what gets indexed: the analyzed labels plus the original
// document as stored, unindexed JSON.
type bleveDocument struct {
	Labels []string `json:"labels"`
	Source string   `json:"source"`
}

// Bleve is an embedded index with the same match semantics as OpenSearch.
type Bleve struct {
	index bleve.Index
	path  string
}

// NewBleve opens or creates a bleve index at path. An empty path creates an
// in-memory index.
func NewBleve(path string) (*Bleve, error) {
	indexMapping := createIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}
	return &Bleve{index: idx, path: path}, nil
}

func createIndexMapping() *mapping.IndexMappingImpl {
	labels := bleve.NewTextFieldMapping()
	labels.Analyzer = standard.Name
	labels.Store = false

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("labels", labels)
	doc.AddFieldMappingsAt("source", source)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	return indexMapping
}

// Exists reports whether a document with id is stored.
func (b *Bleve) Exists(ctx context.Context, id string) (bool, error) {
	doc, err := b.index.Document(id)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return doc != nil, nil
}

// Put indexes doc under id.
func (b *Bleve) Put(ctx context.Context, id string, doc photo.Document) (PutResult, error) {
	existed, err := b.Exists(ctx, id)
	if err != nil {
		return 0, err
	}
	src, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("Put: marshal document: %w", err)
	}
	if err := b.index.Index(id, bleveDocument{Labels: doc.Labels, Source: string(src)}); err != nil {
		return 0, fmt.Errorf("Put: %w", err)
	}
	if existed {
		return Updated, nil
	}
	return Created, nil
}

// Search matches any keyword against the labels field.
func (b *Bleve) Search(ctx context.Context, keywords []string, limit int) ([]Hit, error) {
	if len(keywords) == 0 {
		return []Hit{}, nil
	}
	disjunction := bleve.NewDisjunctionQuery()
	for _, kw := range keywords {
		match := bleve.NewMatchQuery(kw)
		match.SetField("labels")
		disjunction.AddQuery(match)
	}
	disjunction.SetMin(1)

	req := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)
	req.Fields = []string{"source"}
	return b.search(ctx, "Search", req)
}

// List scans all documents in id order, resuming after the cursor.
func (b *Bleve) List(ctx context.Context, after string, size int) (Page, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, 0, false)
	req.Fields = []string{"source"}
	req.SortBy([]string{"_id"})
	if after != "" {
		req.SetSearchAfter([]string{after})
	}
	hits, err := b.search(ctx, "List", req)
	if err != nil {
		return Page{}, err
	}
	return pageOf(hits, size), nil
}

func (b *Bleve) search(ctx context.Context, op string, req *bleve.SearchRequest) ([]Hit, error) {
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		src, _ := h.Fields["source"].(string)
		var doc photo.Document
		if err := json.Unmarshal([]byte(src), &doc); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", op, h.ID, err)
		}
		hits = append(hits, Hit{ID: h.ID, Document: doc})
	}
	return hits, nil
}

// Count returns the number of stored documents.
func (b *Bleve) Count(ctx context.Context) (int, error) {
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return int(n), nil
}

// Delete removes a document. A missing document is reported as not found.
func (b *Bleve) Delete(ctx context.Context, id string) error {
	exists, err := b.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &Error{StatusCode: 404, Message: "document not found", Op: "Delete"}
	}
	if err := b.index.Delete(id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// Close releases the index.
func (b *Bleve) Close() error {
	return b.index.Close()
}
