package dialogue

import (
	"testing"

	"hservice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeTranscript(t *testing.T) {
	assert.Equal(t, NoPreviousMessages, SerializeTranscript(nil))
	got := SerializeTranscript([]models.Message{
		models.UserMessage("Where is my order?"),
		models.BotMessage("Let me check."),
	})
	assert.Equal(t, "user: Where is my order?\nbot: Let me check.", got)
}

func TestTranscriptRoundTrip(t *testing.T) {
	transcripts := [][]models.Message{
		{},
		{models.UserMessage("hello")},
		{
			models.UserMessage("line one\nline two"),
			models.BotMessage(`C:\path\to\invoice.pdf`),
			models.UserMessage(""),
			models.BotMessage("user: not a new message"),
			models.UserMessage("literal \\n and a real\r\nbreak"),
		},
	}
	for _, tr := range transcripts {
		parsed, err := ParseTranscript(SerializeTranscript(tr))
		require.NoError(t, err)
		assert.Equal(t, tr, parsed)
	}
}

func TestParseTranscriptRejectsGarbage(t *testing.T) {
	_, err := ParseTranscript("user hello")
	assert.Error(t, err)
	_, err = ParseTranscript("robot: hi")
	assert.Error(t, err)
	_, err = ParseTranscript(`user: trailing \`)
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt([]models.Message{models.UserMessage("track my refund")}, "")
	assert.Contains(t, p.System, `"bot_msg"`)
	assert.Contains(t, p.System, "track_refund")
	assert.Contains(t, p.User, "user: track my refund")
	assert.NotContains(t, p.User, "Product catalog")
	require.Len(t, p.Messages(), 2)

	p = BuildPrompt(nil, "- Mouse (id 2)")
	assert.Contains(t, p.User, "Product catalog:\n- Mouse (id 2)")
	assert.Contains(t, p.User, NoPreviousMessages)
}
