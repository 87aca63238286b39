package indexphotos

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/photo-search/internal/searchindex"
)

const (
	QueryCount = "count"
	QueryAll   = "all"

	sampleSize = 10
)

// QueryRequest is a manual invocation that inspects the index.
type QueryRequest struct {
	QueryType string `json:"queryType"`
}

type sampleHit struct {
	ID     string      `json:"id"`
	Source interface{} `json:"source"`
}

// HandleQuery answers "count" (the default) with the document count and
// "all" with the first few documents.
func (h *Handler) HandleQuery(ctx context.Context, req QueryRequest) Response {
	if h.Index == nil {
		return Response{StatusCode: 400, Body: jsonString("OpenSearch endpoint not configured")}
	}

	var body interface{}
	var err error
	switch req.QueryType {
	case "", QueryCount:
		var n int
		n, err = h.Index.Count(ctx)
		body = map[string]int{"count": n}
	case QueryAll:
		var page searchindex.Page
		page, err = h.Index.List(ctx, "", sampleSize)
		sample := make([]sampleHit, 0, len(page.Hits))
		for _, hit := range page.Hits {
			sample = append(sample, sampleHit{ID: hit.ID, Source: hit.Document})
		}
		body = map[string]interface{}{"hits": sample}
	default:
		return Response{StatusCode: 400, Body: jsonString("Invalid queryType")}
	}

	if errors.Is(err, searchindex.ErrNotConfigured) {
		return Response{StatusCode: 400, Body: jsonString("OpenSearch endpoint not configured")}
	}
	if err != nil {
		h.logger().Error("admin_query_failed",
			slog.String("query_type", req.QueryType),
			slog.String("error", err.Error()))
		return Response{StatusCode: 500, Body: jsonString("Query error: " + err.Error())}
	}

	b, _ := json.Marshal(body)
	return Response{StatusCode: 200, Body: string(b)}
}
