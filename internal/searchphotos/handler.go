// Package searchphotos is the search Lambda. It answers API Gateway
// GET /search?q= requests and Lex V2 fulfillment calls.
package searchphotos

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/photo-search/internal/photo"
	"github.com/photo-search/internal/query"
	"github.com/photo-search/internal/searchindex"
)

// KeywordResolver reduces a free-text query to keywords.
type KeywordResolver interface {
	Resolve(ctx context.Context, text string) query.Resolution
}

// Handler serves search requests against the photo index.
type Handler struct {
	Resolver KeywordResolver
	Index    searchindex.Index
	// Region builds the public URLs of results.
	Region string
	Limit  int
	Logger *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) limit() int {
	if h.Limit <= 0 {
		return searchindex.DefaultSearchLimit
	}
	return h.Limit
}

// SearchResponse is the body of a successful API search.
type SearchResponse struct {
	Query    string               `json:"query"`
	Keywords []string             `json:"keywords"`
	Results  []photo.SearchResult `json:"results"`
	Error    string               `json:"error,omitempty"`
}

// probe detects Lex fulfillment events.
type probe struct {
	SessionState *struct {
		Intent json.RawMessage `json:"intent"`
	} `json:"sessionState"`
}

// Handle routes a raw invocation. Events carrying sessionState.intent come
// from Lex; anything else is an API Gateway proxy request.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	if p.SessionState != nil && len(p.SessionState.Intent) > 0 && string(p.SessionState.Intent) != "null" {
		var event LexEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("failed to parse Lex event: %w", err)
		}
		return h.HandleLex(ctx, event), nil
	}

	var request events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("failed to parse API Gateway request: %w", err)
	}
	return h.HandleAPI(ctx, request)
}

// HandleAPI answers GET /search?q=.
func (h *Handler) HandleAPI(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "GET,OPTIONS",
		"Content-Type":                 "application/json",
	}

	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{
			StatusCode: 200,
			Headers:    headers,
		}, nil
	}

	userQuery := strings.TrimSpace(request.QueryStringParameters["q"])
	if userQuery == "" {
		return errorResponse(400, "Query parameter q is required", headers)
	}

	log := h.logger().With(slog.String("query", userQuery))
	resolution := h.Resolver.Resolve(ctx, userQuery)
	log.Info("query_resolved",
		slog.Any("keywords", resolution.Keywords),
		slog.String("source", string(resolution.Source)))

	resp := SearchResponse{
		Query:    userQuery,
		Keywords: resolution.Keywords,
		Results:  []photo.SearchResult{},
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if len(resp.Keywords) == 0 {
		return jsonResponse(200, resp, headers)
	}

	hits, err := h.Index.Search(ctx, resp.Keywords, h.limit())
	if err != nil {
		log.Error("search_failed", slog.String("error", err.Error()))
		resp.Error = "search unavailable"
		return jsonResponse(200, resp, headers)
	}

	for _, doc := range searchindex.Documents(hits) {
		resp.Results = append(resp.Results, doc.ToResult(h.Region))
	}
	log.Info("search_completed", slog.Int("results", len(resp.Results)))

	return jsonResponse(200, resp, headers)
}

func jsonResponse(statusCode int, body interface{}, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return errorResponse(500, err.Error(), headers)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(b),
	}, nil
}

func errorResponse(statusCode int, message string, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
