// Package intent interprets search text with an Amazon Lex V2 bot.
package intent

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/lexruntimev2"
	"github.com/aws/aws-sdk-go/service/lexruntimev2/lexruntimev2iface"
	"github.com/google/uuid"

	"github.com/photo-search/internal/query"
)

const (
	DefaultBotAliasID = "TSTALIASID"
	DefaultLocaleID   = "en_US"
)

// Lex sends text to a bot and returns the slots it filled.
type Lex struct {
	client     lexruntimev2iface.LexRuntimeV2API
	botID      string
	botAliasID string
	localeID   string
	newSession func() string
}

// NewLex creates a recognizer for the given bot, or returns nil when botID is
// empty.
func NewLex(client lexruntimev2iface.LexRuntimeV2API, botID, botAliasID, localeID string) *Lex {
	if botID == "" {
		return nil
	}
	if botAliasID == "" {
		botAliasID = DefaultBotAliasID
	}
	if localeID == "" {
		localeID = DefaultLocaleID
	}
	return &Lex{
		client:     client,
		botID:      botID,
		botAliasID: botAliasID,
		localeID:   localeID,
		newSession: func() string { return "search-" + uuid.NewString() },
	}
}

// RecognizeText runs text through the bot in a fresh session. A response
// without an intent yields nil slots.
func (l *Lex) RecognizeText(ctx context.Context, text string) (query.Slots, error) {
	out, err := l.client.RecognizeTextWithContext(ctx, &lexruntimev2.RecognizeTextInput{
		BotId:      aws.String(l.botID),
		BotAliasId: aws.String(l.botAliasID),
		LocaleId:   aws.String(l.localeID),
		SessionId:  aws.String(l.newSession()),
		Text:       aws.String(text),
	})
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	if out.SessionState == nil || out.SessionState.Intent == nil {
		return nil, nil
	}
	return convertSlots(out.SessionState.Intent.Slots), nil
}

func convertSlots(in map[string]*lexruntimev2.Slot) query.Slots {
	slots := make(query.Slots, len(in))
	for name, s := range in {
		if s == nil || s.Value == nil {
			slots[name] = nil
			continue
		}
		slots[name] = &query.Slot{Value: &query.SlotValue{
			OriginalValue:    aws.StringValue(s.Value.OriginalValue),
			InterpretedValue: aws.StringValue(s.Value.InterpretedValue),
			ResolvedValues:   aws.StringValueSlice(s.Value.ResolvedValues),
		}}
	}
	return slots
}
