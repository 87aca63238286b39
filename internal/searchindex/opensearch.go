package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/opensearch-project/opensearch-go/v2/signer"
	requestsigner "github.com/opensearch-project/opensearch-go/v2/signer/aws"

	"github.com/photo-search/internal/photo"
)

// OpenSearch stores documents in an Amazon OpenSearch Service domain.
type OpenSearch struct {
	client *opensearch.Client
	index  string
}

// OpenSearchOption configures an OpenSearch client.
type OpenSearchOption func(*opensearch.Config)

// WithSigner signs every request, typically with NewAWSSigner.
func WithSigner(s signer.Signer) OpenSearchOption {
	return func(c *opensearch.Config) {
		c.Signer = s
	}
}

// NewAWSSigner returns a SigV4 signer for the "es" service in region.
func NewAWSSigner(region string, creds *credentials.Credentials) (signer.Signer, error) {
	s, err := requestsigner.NewSignerWithService(session.Options{
		Config: aws.Config{
			Region:      aws.String(region),
			Credentials: creds,
		},
	}, requestsigner.OpenSearchService)
	if err != nil {
		return nil, fmt.Errorf("failed to create request signer: %w", err)
	}
	return s, nil
}

// NewOpenSearch creates a client for index on the domain at endpoint.
// Requests are unsigned unless WithSigner is given. The transport does not
// retry, so each call reaches the domain at most once.
func NewOpenSearch(endpoint, index string, opts ...OpenSearchOption) (*OpenSearch, error) {
	cfg := opensearch.Config{
		Addresses:    []string{strings.TrimRight(endpoint, "/")},
		DisableRetry: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}
	return &OpenSearch{client: client, index: index}, nil
}

// do runs req and returns the status code and body. Non-2xx statuses other
// than those listed in accept become *Error.
func (o *OpenSearch) do(ctx context.Context, op string, req opensearchapi.Request, accept ...int) (int, []byte, error) {
	res, err := req.Do(ctx, o.client)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if !res.IsError() {
		return res.StatusCode, body, nil
	}
	for _, code := range accept {
		if res.StatusCode == code {
			return res.StatusCode, body, nil
		}
	}
	return res.StatusCode, body, &Error{
		StatusCode: res.StatusCode,
		Message:    string(body),
		Op:         op,
	}
}

func jsonBody(op string, v interface{}) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}
	return bytes.NewReader(b), nil
}

// Exists checks for the document with a HEAD request.
func (o *OpenSearch) Exists(ctx context.Context, id string) (bool, error) {
	status, _, err := o.do(ctx, "Exists", opensearchapi.ExistsRequest{
		Index:      o.index,
		DocumentID: id,
	}, http.StatusNotFound)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

type writeResponse struct {
	Result string `json:"result"`
}

// Put indexes doc under id, replacing any existing document.
func (o *OpenSearch) Put(ctx context.Context, id string, doc photo.Document) (PutResult, error) {
	body, err := jsonBody("Put", doc)
	if err != nil {
		return 0, err
	}
	status, resp, err := o.do(ctx, "Put", opensearchapi.IndexRequest{
		Index:      o.index,
		DocumentID: id,
		Body:       body,
	})
	if err != nil {
		return 0, err
	}
	var wr writeResponse
	if json.Unmarshal(resp, &wr) == nil {
		switch wr.Result {
		case "created":
			return Created, nil
		case "updated":
			return Updated, nil
		}
	}
	if status == http.StatusCreated {
		return Created, nil
	}
	return Updated, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source photo.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (o *OpenSearch) search(ctx context.Context, op string, query map[string]interface{}) ([]Hit, error) {
	body, err := jsonBody(op, query)
	if err != nil {
		return nil, err
	}
	_, resp, err := o.do(ctx, op, opensearchapi.SearchRequest{
		Index: []string{o.index},
		Body:  body,
	})
	if err != nil {
		return nil, err
	}
	var sr searchResponse
	if err := json.Unmarshal(resp, &sr); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	hits := make([]Hit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Document: h.Source})
	}
	return hits, nil
}

// LabelQuery builds the "match any keyword against labels" search body.
func LabelQuery(keywords []string, limit int) map[string]interface{} {
	should := make([]map[string]interface{}, 0, len(keywords))
	for _, kw := range keywords {
		should = append(should, map[string]interface{}{
			"match": map[string]interface{}{"labels": kw},
		})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"size": limit,
	}
}

// ListQuery builds a match_all page sorted by id that resumes after the
// cursor with search_after, so a scan is not bounded by max_result_window.
func ListQuery(after string, size int) map[string]interface{} {
	q := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"size":  size,
		"sort":  []map[string]string{{"_id": "asc"}},
	}
	if after != "" {
		q["search_after"] = []string{after}
	}
	return q
}

// Search runs a bool/should match over the labels field.
func (o *OpenSearch) Search(ctx context.Context, keywords []string, limit int) ([]Hit, error) {
	if len(keywords) == 0 {
		return []Hit{}, nil
	}
	return o.search(ctx, "Search", LabelQuery(keywords, limit))
}

// List scans all documents in id order, resuming after the cursor.
func (o *OpenSearch) List(ctx context.Context, after string, size int) (Page, error) {
	hits, err := o.search(ctx, "List", ListQuery(after, size))
	if err != nil {
		return Page{}, err
	}
	return pageOf(hits, size), nil
}

// Count returns the number of documents in the index.
func (o *OpenSearch) Count(ctx context.Context) (int, error) {
	_, resp, err := o.do(ctx, "Count", opensearchapi.CountRequest{
		Index: []string{o.index},
	})
	if err != nil {
		return 0, err
	}
	var cr struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(resp, &cr); err != nil {
		return 0, fmt.Errorf("Count: decode response: %w", err)
	}
	return cr.Count, nil
}

// Delete removes a document. Deleting a missing document returns an *Error
// for which IsNotFound is true.
func (o *OpenSearch) Delete(ctx context.Context, id string) error {
	_, _, err := o.do(ctx, "Delete", opensearchapi.DeleteRequest{
		Index:      o.index,
		DocumentID: id,
	})
	return err
}
