package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hservice/internal/models"
)

var errNoJSONObject = errors.New("no JSON object in provider output")

// ExtractJSONObject returns the first balanced top-level {...} in raw. Braces
// inside JSON string literals are ignored.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", errNoJSONObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object starting at offset %d", start)
}

// turnPayload is the schema the model is asked to answer with.
type turnPayload struct {
	Thought        string `json:"thought_process_for_intent"`
	Intent         string `json:"intent"`
	BotMsg         string `json:"bot_msg"`
	IsTicketClosed *bool  `json:"is_ticket_closed"`
}

// ParseTurn decodes provider output into a BotTurnResult. Any failure is a
// KindMalformedUpstreamResponse error.
func ParseTurn(raw string) (*models.BotTurnResult, error) {
	const op = "parse turn"
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, newError(KindMalformedUpstreamResponse, op, err)
	}
	var payload turnPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, newError(KindMalformedUpstreamResponse, op, fmt.Errorf("decode: %w", err))
	}
	if strings.TrimSpace(payload.BotMsg) == "" {
		return nil, newError(KindMalformedUpstreamResponse, op, errors.New("bot_msg is empty"))
	}
	if payload.IsTicketClosed == nil {
		return nil, newError(KindMalformedUpstreamResponse, op, errors.New("is_ticket_closed is missing"))
	}
	intent, err := models.ParseIntent(payload.Intent)
	if err != nil {
		return nil, newError(KindMalformedUpstreamResponse, op, err)
	}
	return &models.BotTurnResult{
		Reply:        payload.BotMsg,
		TicketClosed: *payload.IsTicketClosed,
		Intent:       intent,
		Thought:      payload.Thought,
	}, nil
}
