package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hservice/internal/dialogue"
	"hservice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorSendsTranscript(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "ticket-1", r.Header.Get("X-Ticket-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Bye!","is_ticket_closed":true,"intent":"review"}`))
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL+"/"), WithToken("tok"), WithTicketID(func() string { return "ticket-1" }))
	transcript := []models.Message{models.UserMessage("thanks"), models.BotMessage("anything else?")}
	res, err := p.GenerateResponse(context.Background(), transcript)
	require.NoError(t, err)

	assert.Equal(t, transcript, got.ChatHistory)
	assert.Equal(t, "Bye!", res.Reply)
	assert.True(t, res.TicketClosed)
	assert.Equal(t, models.IntentReview, res.Intent)
}

func TestProcessorMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{status: http.StatusTooManyRequests, body: `{"detail":"slow down"}`, want: dialogue.ErrRateLimited},
		{status: http.StatusInternalServerError, body: `{"detail":"provider down"}`, want: dialogue.ErrUpstreamUnavailable},
		{status: http.StatusBadGateway, body: `oops`, want: dialogue.ErrUpstreamUnavailable},
		{status: http.StatusBadRequest, body: `{"detail":"unknown sender"}`, want: dialogue.ErrInvalidRequest},
		{status: http.StatusOK, body: `not json`, want: dialogue.ErrMalformedUpstreamResponse},
		{status: http.StatusOK, body: `{"response":"hi"}`, want: dialogue.ErrMalformedUpstreamResponse},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		_, err := New(WithBaseURL(srv.URL)).GenerateResponse(context.Background(), nil)
		srv.Close()
		require.Error(t, err, tc.body)
		assert.ErrorIs(t, err, tc.want, tc.body)
	}
}

func TestProcessorDetailInError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"provider down"}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).GenerateResponse(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestProcessorUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(WithBaseURL(url)).GenerateResponse(context.Background(), nil)
	assert.ErrorIs(t, err, dialogue.ErrUpstreamUnavailable)
}
