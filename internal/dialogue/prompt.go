package dialogue

import (
	"strings"

	"hservice/internal/models"

	"github.com/cloudwego/eino/schema"
)

const systemInstruction = `You are the customer support assistant of an online store.
Read the conversation, classify the customer's intent and write the next support reply.
Close the ticket only when the customer has nothing else to ask or says goodbye.
Answer with a single JSON object and nothing else.`

// Prompt is the message pair sent to the provider for one turn.
type Prompt struct {
	System string
	User   string
}

func (p Prompt) Messages() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(p.System),
		schema.UserMessage(p.User),
	}
}

// BuildPrompt embeds the serialized transcript, the output schema and, when
// catalog is non-empty, the product catalog dump.
func BuildPrompt(transcript []models.Message, catalog string) Prompt {
	var sys strings.Builder
	sys.WriteString(systemInstruction)
	sys.WriteString("\n\nOutput schema:\n")
	sys.WriteString(outputSchema())

	var user strings.Builder
	if catalog != "" {
		user.WriteString("Product catalog:\n")
		user.WriteString(catalog)
		user.WriteString("\n\n")
	}
	user.WriteString("Conversation:\n")
	user.WriteString(SerializeTranscript(transcript))

	return Prompt{System: sys.String(), User: user.String()}
}

func outputSchema() string {
	intents := models.Intents()
	names := make([]string, len(intents))
	for i, in := range intents {
		names[i] = string(in)
	}
	return `{
  "thought_process_for_intent": "string, short reasoning that leads to the intent",
  "intent": "one of: ` + strings.Join(names, ", ") + `",
  "bot_msg": "string, the reply shown to the customer",
  "is_ticket_closed": "boolean"
}`
}
