package main

import (
	"fmt"
	"io"
	"sync"
)

// terminalView prints the conversation to a terminal.
type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

// the user's line is already on screen
func (v *terminalView) DisplayUserMessage(string) {}

func (v *terminalView) DisplayBotMessage(text string) { v.printf("bot> %s\n", text) }

func (v *terminalView) ShowLoading() { v.printf("... ") }

func (v *terminalView) HideLoading() { v.printf("\r") }

func (v *terminalView) ClearInput() {}

func (v *terminalView) OfferNewTicket() {
	v.printf("Type /new to open a new support ticket or /quit to leave.\n")
}

func (v *terminalView) Prompt() { v.printf("you> ") }
