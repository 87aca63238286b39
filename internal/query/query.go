// Package query reduces a search request to label keywords, using intent
// recognition when it is available and plain keyword extraction otherwise.
package query

import (
	"context"
	"log/slog"
	"sort"

	"github.com/photo-search/internal/keywords"
)

// SlotValue is the recognized value of a slot.
type SlotValue struct {
	OriginalValue    string   `json:"originalValue,omitempty"`
	InterpretedValue string   `json:"interpretedValue,omitempty"`
	ResolvedValues   []string `json:"resolvedValues,omitempty"`
}

// Slot is one named field filled by intent recognition. A nil Slot or a nil
// Value means the slot was not filled.
type Slot struct {
	Value *SlotValue `json:"value,omitempty"`
}

// Slots maps slot names to their values, in the shape Lex V2 uses.
type Slots map[string]*Slot

// Interpreted returns the slot's interpreted value or "".
func (s *Slot) Interpreted() string {
	if s == nil || s.Value == nil {
		return ""
	}
	return s.Value.InterpretedValue
}

// FromSlots normalizes every non-empty interpreted value. Slots are visited
// in name order so the result is reproducible.
func FromSlots(slots Slots) []string {
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []string{}
	for _, name := range names {
		if v := slots[name].Interpreted(); v != "" {
			out = append(out, keywords.Normalize(v)...)
		}
	}
	return out
}

// Recognizer interprets free text into slots.
type Recognizer interface {
	RecognizeText(ctx context.Context, text string) (Slots, error)
}

// Source says where a resolution's keywords came from.
type Source string

const (
	SourceIntent Source = "intent"
	SourceText   Source = "text"
)

// Resolution is the outcome of resolving a query.
type Resolution struct {
	Keywords []string
	Source   Source
}

// Resolver turns queries into keywords.
type Resolver struct {
	recognizer Recognizer
	logger     *slog.Logger
}

// NewResolver creates a Resolver. recognizer may be nil.
func NewResolver(recognizer Recognizer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{recognizer: recognizer, logger: logger}
}

// Resolve extracts keywords from text. Intent recognition is tried first;
// when it is not configured, fails, or fills no slots with usable words the
// raw text is normalized instead.
func (r *Resolver) Resolve(ctx context.Context, text string) Resolution {
	if r.recognizer != nil {
		slots, err := r.recognizer.RecognizeText(ctx, text)
		switch {
		case err != nil:
			r.logger.Warn("intent_recognition_failed", slog.String("error", err.Error()))
		case slots == nil:
			r.logger.Info("intent_recognition_empty")
		default:
			if kws := FromSlots(slots); len(kws) > 0 {
				return Resolution{Keywords: kws, Source: SourceIntent}
			}
			r.logger.Info("intent_slots_without_keywords", slog.Int("slots", len(slots)))
		}
	}
	return Resolution{Keywords: keywords.Normalize(text), Source: SourceText}
}
