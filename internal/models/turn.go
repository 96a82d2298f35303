package models

// BotTurnResult is the single reply produced for one user turn.
type BotTurnResult struct {
	Reply        string `json:"response"`
	TicketClosed bool   `json:"is_ticket_closed"`
	Intent       Intent `json:"intent,omitempty"`
	Thought      string `json:"thought_process_for_intent,omitempty"`
}
