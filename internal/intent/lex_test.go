package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/lexruntimev2"
	"github.com/aws/aws-sdk-go/service/lexruntimev2/lexruntimev2iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photo-search/internal/query"
)

type fakeLex struct {
	lexruntimev2iface.LexRuntimeV2API

	in  *lexruntimev2.RecognizeTextInput
	out *lexruntimev2.RecognizeTextOutput
	err error
}

func (f *fakeLex) RecognizeTextWithContext(ctx aws.Context, in *lexruntimev2.RecognizeTextInput, opts ...request.Option) (*lexruntimev2.RecognizeTextOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestNewLex_RequiresBotID(t *testing.T) {
	assert.Nil(t, NewLex(&fakeLex{}, "", "", ""))

	l := NewLex(&fakeLex{}, "BOT123", "", "")
	require.NotNil(t, l)
	assert.Equal(t, DefaultBotAliasID, l.botAliasID)
	assert.Equal(t, DefaultLocaleID, l.localeID)
}

func TestRecognizeText(t *testing.T) {
	f := &fakeLex{out: &lexruntimev2.RecognizeTextOutput{
		SessionState: &lexruntimev2.SessionState{
			Intent: &lexruntimev2.Intent{
				Name: aws.String("SearchIntent"),
				Slots: map[string]*lexruntimev2.Slot{
					"animal": {Value: &lexruntimev2.Value{
						OriginalValue:    aws.String("dogs"),
						InterpretedValue: aws.String("Dogs"),
					}},
					"color": nil,
				},
			},
		},
	}}
	l := NewLex(f, "BOT123", "ALIAS1", "en_GB")

	slots, err := l.RecognizeText(context.Background(), "show me dogs")
	require.NoError(t, err)

	assert.Equal(t, "Dogs", slots["animal"].Interpreted())
	assert.Equal(t, "", slots["color"].Interpreted())
	assert.Equal(t, []string{"dog"}, query.FromSlots(slots))

	assert.Equal(t, "BOT123", aws.StringValue(f.in.BotId))
	assert.Equal(t, "ALIAS1", aws.StringValue(f.in.BotAliasId))
	assert.Equal(t, "en_GB", aws.StringValue(f.in.LocaleId))
	assert.Equal(t, "show me dogs", aws.StringValue(f.in.Text))
	assert.True(t, strings.HasPrefix(aws.StringValue(f.in.SessionId), "search-"))
}

func TestRecognizeText_NoIntent(t *testing.T) {
	f := &fakeLex{out: &lexruntimev2.RecognizeTextOutput{}}
	slots, err := NewLex(f, "BOT123", "", "").RecognizeText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Nil(t, slots)
}

func TestRecognizeText_Error(t *testing.T) {
	boom := errors.New("ResourceNotFoundException")
	_, err := NewLex(&fakeLex{err: boom}, "BOT123", "", "").RecognizeText(context.Background(), "dogs")
	assert.ErrorIs(t, err, boom)
}

func TestRecognizeText_FreshSessionPerCall(t *testing.T) {
	f := &fakeLex{out: &lexruntimev2.RecognizeTextOutput{}}
	l := NewLex(f, "BOT123", "", "")

	_, _ = l.RecognizeText(context.Background(), "a")
	first := aws.StringValue(f.in.SessionId)
	_, _ = l.RecognizeText(context.Background(), "b")
	assert.NotEqual(t, first, aws.StringValue(f.in.SessionId))
}
