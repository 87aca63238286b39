package searchphotos

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/photo-search/internal/query"
)

const (
	fallbackIntent  = "FallbackIntent"
	fallbackMessage = "Sorry, I didn't quite get that."

	StateFulfilled = "Fulfilled"
	StateFailed    = "Failed"
)

// LexIntent is the intent Lex hands to the fulfillment hook.
type LexIntent struct {
	Name              string      `json:"name"`
	Slots             query.Slots `json:"slots"`
	State             string      `json:"state,omitempty"`
	ConfirmationState string      `json:"confirmationState,omitempty"`
}

// DialogAction tells Lex what to do next.
type DialogAction struct {
	Type string `json:"type"`
}

// SessionState is the session portion of Lex requests and responses.
type SessionState struct {
	DialogAction      *DialogAction     `json:"dialogAction,omitempty"`
	Intent            *LexIntent        `json:"intent,omitempty"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
}

// LexEvent is a Lex V2 fulfillment code hook invocation.
type LexEvent struct {
	SessionID       string       `json:"sessionId"`
	InputTranscript string       `json:"inputTranscript"`
	SessionState    SessionState `json:"sessionState"`
}

// LexMessage is a message shown to the user.
type LexMessage struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// LexResponse closes the conversation.
type LexResponse struct {
	SessionState SessionState `json:"sessionState"`
	Messages     []LexMessage `json:"messages,omitempty"`
}

// HandleLex fulfills a search intent by reporting the keywords pulled from
// its slots. The keywords are also returned in the "results" session
// attribute as a JSON array.
func (h *Handler) HandleLex(ctx context.Context, event LexEvent) LexResponse {
	intent := event.SessionState.Intent
	log := h.logger().With(slog.String("session_id", event.SessionID))

	if intent == nil || intent.Name == "" {
		log.Error("lex_intent_missing")
		return closeIntent(&LexIntent{}, StateFailed, "Error processing request: intent name missing", nil)
	}
	if intent.Name == fallbackIntent {
		return closeIntent(intent, StateFulfilled, fallbackMessage, nil)
	}

	kws := query.FromSlots(intent.Slots)
	log.Info("lex_fulfillment",
		slog.String("intent", intent.Name),
		slog.String("input", event.InputTranscript),
		slog.Any("keywords", kws))

	encoded, err := json.Marshal(kws)
	if err != nil {
		return closeIntent(intent, StateFailed, "Error processing request: "+err.Error(), nil)
	}

	return closeIntent(intent, StateFulfilled,
		"Searching for photos with keywords: "+strings.Join(kws, ", "),
		map[string]string{"results": string(encoded)})
}

func closeIntent(intent *LexIntent, state, message string, attributes map[string]string) LexResponse {
	closed := *intent
	closed.State = state
	return LexResponse{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: "Close"},
			Intent:            &closed,
			SessionAttributes: attributes,
		},
		Messages: []LexMessage{{ContentType: "PlainText", Content: message}},
	}
}
