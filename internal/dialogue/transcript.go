package dialogue

import (
	"fmt"
	"strings"

	"hservice/internal/models"
)

// NoPreviousMessages stands in for an empty transcript.
const NoPreviousMessages = "no previous messages"

var transcriptEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

// SerializeTranscript renders one "<sender>: <text>" line per message.
// Backslashes and line breaks inside a text are escaped so every message
// stays on its own line and ParseTranscript can recover it exactly.
func SerializeTranscript(transcript []models.Message) string {
	if len(transcript) == 0 {
		return NoPreviousMessages
	}
	lines := make([]string, len(transcript))
	for i, msg := range transcript {
		lines[i] = string(msg.Sender) + ": " + transcriptEscaper.Replace(msg.Text)
	}
	return strings.Join(lines, "\n")
}

// ParseTranscript is the inverse of SerializeTranscript.
func ParseTranscript(text string) ([]models.Message, error) {
	if text == NoPreviousMessages {
		return []models.Message{}, nil
	}
	lines := strings.Split(text, "\n")
	out := make([]models.Message, 0, len(lines))
	for i, line := range lines {
		role, content, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("line %d: missing role separator", i+1)
		}
		sender, err := models.ParseSender(role)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		unescaped, err := unescapeLine(content)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, models.Message{Sender: sender, Text: unescaped})
	}
	return out, nil
}

func unescapeLine(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
