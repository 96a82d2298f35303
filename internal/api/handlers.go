package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hservice/internal/auth"
	"hservice/internal/catalog"
	"hservice/internal/config"
	"hservice/internal/dialogue"
	"hservice/internal/models"
	"hservice/internal/turnlog"
)

// TicketHeader carries the client's ticket id into the turn log.
const TicketHeader = "X-Ticket-ID"

// Deps are the collaborators behind the HTTP routes. Catalog and Turns may be nil.
type Deps struct {
	Processor     dialogue.Processor
	ProcessorName string
	Catalog       catalog.Repository
	Turns         turnlog.Recorder
	Auth          *auth.Service
	Logger        zerolog.Logger
}

// Handler wires HTTP routes to the dialogue processor.
type Handler struct {
	processor     dialogue.Processor
	processorName string
	catalog       catalog.Repository
	turns         turnlog.Recorder
	auth          *auth.Service
	logger        zerolog.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(d Deps) *Handler {
	authService := d.Auth
	if authService == nil {
		authService = auth.NewService(config.AuthConfig{}, 0)
	}
	return &Handler{
		processor:     d.Processor,
		processorName: d.ProcessorName,
		catalog:       d.Catalog,
		turns:         d.Turns,
		auth:          authService,
		logger:        d.Logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)

	authMW := h.auth.Middleware()
	router.POST("/chat", authMW, h.chat)

	stats := router.Group("/stats")
	stats.Use(authMW)
	stats.GET("/intents", h.intentStats)
	stats.GET("/tickets/:id", h.ticketState)

	if h.catalog != nil {
		router.GET("/products", h.listProducts)
		router.GET("/products/:name", h.getProduct)
	}
}

type messagePayload struct {
	Sender string `json:"sender"`
	Msg    string `json:"msg"`
}

type chatRequest struct {
	ChatHistory []messagePayload `json:"chat_history" binding:"required"`
}

type chatResponse struct {
	Response       string        `json:"response"`
	IsTicketClosed bool          `json:"is_ticket_closed"`
	Intent         models.Intent `json:"intent,omitempty"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body: chat_history is required"})
		return
	}
	transcript := make([]models.Message, 0, len(req.ChatHistory))
	for i, m := range req.ChatHistory {
		sender, err := models.ParseSender(m.Sender)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "chat_history[" + strconv.Itoa(i) + "]: " + err.Error()})
			return
		}
		transcript = append(transcript, models.Message{Sender: sender, Text: m.Msg})
	}

	client, _ := auth.ClientFromContext(c)
	start := time.Now()
	turn, err := h.processor.GenerateResponse(c.Request.Context(), transcript)
	latency := time.Since(start)
	if err != nil {
		status := statusForError(err)
		h.logger.Error().Err(err).Str("client", client).Int("status", status).Dur("latency", latency).Msg("chat turn failed")
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}
	h.logger.Debug().
		Str("client", client).
		Str("intent", string(turn.Intent)).
		Bool("closed", turn.TicketClosed).
		Dur("latency", latency).
		Msg("chat turn served")

	h.recordTurn(c, turn, latency)
	c.JSON(http.StatusOK, chatResponse{
		Response:       turn.Reply,
		IsTicketClosed: turn.TicketClosed,
		Intent:         turn.Intent,
	})
}

// statusForError is the HTTP mapping of processor failures.
func statusForError(err error) int {
	switch dialogue.KindOf(err) {
	case dialogue.KindRateLimited:
		return http.StatusTooManyRequests
	case dialogue.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// recordTurn never fails the request; the turn log is best effort.
func (h *Handler) recordTurn(c *gin.Context, turn *models.BotTurnResult, latency time.Duration) {
	if h.turns == nil {
		return
	}
	entry := turnlog.Turn{
		TicketID:     strings.TrimSpace(c.GetHeader(TicketHeader)),
		Intent:       turn.Intent,
		TicketClosed: turn.TicketClosed,
		Latency:      latency,
		At:           time.Now().UTC(),
	}
	if err := h.turns.Record(c.Request.Context(), entry); err != nil {
		h.logger.Warn().Err(err).Str("ticket", entry.TicketID).Msg("record turn failed")
	}
}

func (h *Handler) intentStats(c *gin.Context) {
	counts := map[string]int64{}
	if h.turns != nil {
		var err error
		counts, err = h.turns.IntentCounts(c.Request.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("load intent stats")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "intent stats unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"intents": counts, "ranking": turnlog.SortedIntents(counts)})
}

// ticketState returns the last recorded turn of a ticket when the turn log
// keeps per-ticket state.
func (h *Handler) ticketState(c *gin.Context) {
	reader, ok := h.turns.(turnlog.TicketReader)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "ticket state is not recorded"})
		return
	}
	id := c.Param("id")
	turn, err := reader.LastTurn(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, turnlog.ErrUnknownTicket) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "ticket not found"})
			return
		}
		h.logger.Error().Err(err).Str("ticket", id).Msg("load ticket state")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "ticket state unavailable"})
		return
	}
	c.JSON(http.StatusOK, turn)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list products")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to list products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	name := c.Param("name")
	product, err := h.catalog.FindByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "product not found"})
			return
		}
		h.logger.Error().Err(err).Str("name", name).Msg("find product")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "processor": h.processorName})
}
