package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"hservice/internal/auth"
	"hservice/internal/client"
	"hservice/internal/config"
	"hservice/internal/dialogue"
	"hservice/internal/logger"
	"hservice/internal/presenter"
)

func main() {
	var (
		useMock  = flag.Bool("mock", false, "answer locally with the canned mock processor")
		url      = flag.String("url", client.DefaultBaseURL, "hservice base URL")
		token    = flag.String("token", "", "bearer token for hservice")
		secret   = flag.String("secret", "", "mint a token locally with this auth secret")
		busy     = flag.String("busy", "reject", "busy policy: reject or queue")
		seed     = flag.Int64("seed", 0, "mock processor seed (0 = time based)")
		timeout  = flag.Duration("timeout", 90*time.Second, "per turn timeout")
		logLevel = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	log := logger.NewWithWriter(logger.Config{Env: "development", Level: *logLevel}, os.Stderr)

	policy, err := presenter.ParseBusyPolicy(*busy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	view := newTerminalView(os.Stdout)
	var (
		p         *presenter.Presenter
		processor dialogue.Processor
	)
	if *useMock {
		s := *seed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		processor = dialogue.NewMockProcessor(s)
	} else {
		bearer := *token
		if bearer == "" && *secret != "" {
			bearer, err = auth.NewService(config.AuthConfig{Secret: *secret}, 0).IssueToken("chatclient")
			if err != nil {
				fmt.Fprintln(os.Stderr, "issue token:", err)
				os.Exit(1)
			}
		}
		processor = client.New(
			client.WithBaseURL(*url),
			client.WithToken(bearer),
			client.WithTicketID(func() string { return p.TicketID() }),
			client.WithHTTPClient(&http.Client{Timeout: *timeout}),
		)
	}
	p = presenter.New(processor, view, presenter.WithBusyPolicy(policy), presenter.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdin, view, p, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run reads lines until EOF or /quit and feeds them to the presenter.
func run(ctx context.Context, in io.Reader, view *terminalView, p *presenter.Presenter, timeout time.Duration) error {
	if _, err := p.NewTicket(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for {
		view.Prompt()
		if !scanner.Scan() {
			view.printf("\n")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			if _, err := p.NewTicket(); err != nil {
				view.printf("%v\n", err)
			}
			continue
		case "/history":
			for _, m := range p.History() {
				view.printf("  %s: %s\n", m.Sender, m.Text)
			}
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Submit(turnCtx, line)
		cancel()
		if errors.Is(err, presenter.ErrBusy) {
			view.printf("still waiting for the previous reply\n")
		} else if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
