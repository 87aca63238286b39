package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	slots Slots
	err   error
	calls int
}

func (s *stubRecognizer) RecognizeText(ctx context.Context, text string) (Slots, error) {
	s.calls++
	return s.slots, s.err
}

func TestFromSlots_SkipsEmptyValues(t *testing.T) {
	var slots Slots
	raw := `{"animal": {"value": {"interpretedValue": "Dogs"}}, "color": {"value": {"interpretedValue": ""}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &slots))

	assert.Equal(t, []string{"dog"}, FromSlots(slots))
}

func TestFromSlots_NilAndUnfilled(t *testing.T) {
	slots := Slots{
		"place":  nil,
		"object": {},
		"animal": {Value: &SlotValue{InterpretedValue: "puppies on beaches"}},
	}
	assert.Equal(t, []string{"puppy", "beach"}, FromSlots(slots))
	assert.Empty(t, FromSlots(nil))
}

func TestFromSlots_NameOrder(t *testing.T) {
	slots := Slots{
		"zeta":  {Value: &SlotValue{InterpretedValue: "trees"}},
		"alpha": {Value: &SlotValue{InterpretedValue: "cats"}},
	}
	assert.Equal(t, []string{"cat", "tree"}, FromSlots(slots))
}

func TestResolve_UsesIntentWhenItYieldsKeywords(t *testing.T) {
	rec := &stubRecognizer{slots: Slots{
		"animal": {Value: &SlotValue{InterpretedValue: "Dogs"}},
	}}
	res := NewResolver(rec, nil).Resolve(context.Background(), "show me dogs and cats")

	assert.Equal(t, []string{"dog"}, res.Keywords)
	assert.Equal(t, SourceIntent, res.Source)
	assert.Equal(t, 1, rec.calls)
}

func TestResolve_FallsBackToText(t *testing.T) {
	const q = "Show me pictures of puppies and beaches"
	want := []string{"puppy", "beach"}

	tests := []struct {
		name string
		rec  Recognizer
	}{
		{"no recognizer", nil},
		{"recognizer error", &stubRecognizer{err: errors.New("bot not found")}},
		{"no slots", &stubRecognizer{}},
		{"empty slots", &stubRecognizer{slots: Slots{"animal": {Value: &SlotValue{}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResolver(tt.rec, nil).Resolve(context.Background(), q)
			assert.Equal(t, want, res.Keywords)
			assert.Equal(t, SourceText, res.Source)
		})
	}
}
