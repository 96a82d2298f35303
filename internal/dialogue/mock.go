package dialogue

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"hservice/internal/models"
)

type keywordReplies struct {
	keyword string
	replies []string
}

// checked in order, first match wins
var mockReplies = []keywordReplies{
	{keyword: "hello", replies: []string{
		"Hello! Welcome to our customer support. How may I assist you today?",
		"Hi there! Thank you for contacting our support team. What can I help you with?",
		"Greetings! I'm here to help with any questions or issues you might have. What brings you to our support today?",
	}},
	{keyword: "issue", replies: []string{
		"I'm sorry to hear you're experiencing an issue. Could you please provide more details about what's happening?",
		"I understand you're facing a problem. Can you describe the issue in more detail so I can better assist you?",
		"Thank you for reporting this. To help you effectively, could you explain the issue you're encountering?",
	}},
	{keyword: "product", replies: []string{
		"Certainly! I'd be happy to provide information about our products. Which specific product are you interested in?",
		"Of course, I can help with product information. Could you tell me which product you'd like to know more about?",
		"I'd be glad to assist with product details. Which particular product are you inquiring about?",
	}},
	{keyword: "help", replies: []string{
		"I'm here to help! Could you please specify what kind of assistance you need?",
		"Absolutely, I'm here to assist. What particular area do you need help with?",
		"I'd be happy to help you. Can you provide more information about what you need assistance with?",
	}},
}

const (
	MockClosingReply  = "Thank you for contacting our support team. Is there anything else I can help you with before we conclude our chat?"
	MockFallbackReply = "I apologize, but I'm not sure I fully understood your question. Could you please provide more details or rephrase your inquiry? I'm here to help and want to make sure I address your needs correctly."
)

// MockProcessor answers from canned replies without any network access. Two
// processors built with the same seed answer the same transcripts identically.
type MockProcessor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockProcessor(seed int64) *MockProcessor {
	return &MockProcessor{rng: rand.New(rand.NewSource(seed))}
}

func (p *MockProcessor) GenerateResponse(ctx context.Context, transcript []models.Message) (*models.BotTurnResult, error) {
	if len(transcript) == 0 {
		return &models.BotTurnResult{Reply: p.pick(mockReplies[0].replies)}, nil
	}

	last := strings.ToLower(strings.TrimSpace(transcript[len(transcript)-1].Text))
	for _, kr := range mockReplies {
		if strings.Contains(last, kr.keyword) {
			return &models.BotTurnResult{Reply: p.pick(kr.replies)}, nil
		}
	}

	if strings.Contains(last, "goodbye") || strings.Contains(last, "thank you") {
		return &models.BotTurnResult{Reply: MockClosingReply, TicketClosed: true}, nil
	}
	return &models.BotTurnResult{Reply: MockFallbackReply}, nil
}

func (p *MockProcessor) pick(replies []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return replies[p.rng.Intn(len(replies))]
}
