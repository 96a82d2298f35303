package dialogue

import (
	"errors"
	"testing"

	"hservice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`: `{"a":1}`,
		"Sure! Here it is:\n```json\n{\"a\":{\"b\":2}}\n```": `{"a":{"b":2}}`,
		`{"msg":"use } and { freely"} trailing {}`:           `{"msg":"use } and { freely"}`,
		`{"msg":"escaped \" quote }"}`:                        `{"msg":"escaped \" quote }"}`,
	}
	for in, want := range cases {
		got, err := ExtractJSONObject(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ExtractJSONObject("I cannot answer that.")
	assert.Error(t, err)
	_, err = ExtractJSONObject(`{"a": {"b": 1}`)
	assert.Error(t, err)
}

func TestParseTurn(t *testing.T) {
	raw := `Here you go: {"thought_process_for_intent": "asks about refund", "intent": "TRACK_REFUND", "bot_msg": "Your refund is on its way.", "is_ticket_closed": false}`
	turn, err := ParseTurn(raw)
	require.NoError(t, err)
	assert.Equal(t, models.IntentTrackRefund, turn.Intent)
	assert.Equal(t, "Your refund is on its way.", turn.Reply)
	assert.Equal(t, "asks about refund", turn.Thought)
	assert.False(t, turn.TicketClosed)
}

func TestParseTurnRejects(t *testing.T) {
	bad := map[string]string{
		"not json":       "Sorry, I am unable to help.",
		"broken json":    `{"bot_msg": }`,
		"missing closed": `{"intent": "complaint", "bot_msg": "ok"}`,
		"empty reply":    `{"intent": "complaint", "bot_msg": "  ", "is_ticket_closed": true}`,
		"unknown intent": `{"intent": "order_pizza", "bot_msg": "ok", "is_ticket_closed": false}`,
		"missing intent": `{"bot_msg": "ok", "is_ticket_closed": false}`,
	}
	for name, raw := range bad {
		_, err := ParseTurn(raw)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrMalformedUpstreamResponse), name)
		assert.Equal(t, KindMalformedUpstreamResponse, KindOf(err), name)
	}
}
