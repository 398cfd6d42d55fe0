package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/dto"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/ingest"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/service"
)

const (
	innerEventMessage       = "message"
	innerEventReactionAdded = "reaction_added"
)

type SlackEventsHandler struct {
	service       service.IngestService
	signingSecret string
	verify        bool
}

// NewSlackEventsHandler builds the Events API handler. With verify false
// request signatures are not checked.
func NewSlackEventsHandler(service service.IngestService, signingSecret string, verify bool) *SlackEventsHandler {
	return &SlackEventsHandler{
		service:       service,
		signingSecret: signingSecret,
		verify:        verify,
	}
}

func (h *SlackEventsHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read request body"})
		return
	}

	if h.verify {
		sv, err := slack.NewSecretsVerifier(c.Request.Header, h.signingSecret)
		if err != nil {
			slog.WarnContext(ctx, "slack request missing signature headers", "error", err)
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid signature"})
			return
		}
		if _, err := sv.Write(body); err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
			return
		}
		if err := sv.Ensure(); err != nil {
			slog.WarnContext(ctx, "slack signature mismatch", "error", err)
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid signature"})
			return
		}
	}

	var envelope dto.SlackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}

	switch envelope.Type {
	case slackevents.URLVerification:
		c.JSON(http.StatusOK, dto.SlackChallengeResponse{Challenge: envelope.Challenge})
	case slackevents.CallbackEvent:
		h.handleCallback(c, envelope)
	default:
		slog.DebugContext(ctx, "ignoring slack envelope", "type", envelope.Type)
		c.JSON(http.StatusOK, dto.SlackEventResponse{Status: "ignored"})
	}
}

func (h *SlackEventsHandler) handleCallback(c *gin.Context, envelope dto.SlackEnvelope) {
	ctx := c.Request.Context()

	var inner dto.SlackInnerEventType
	if err := json.Unmarshal(envelope.Event, &inner); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid event"})
		return
	}

	switch inner.Type {
	case innerEventMessage:
		var evt ingest.MessageEvent
		if err := json.Unmarshal(envelope.Event, &evt); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid event"})
			return
		}
		result, err := h.service.HandleMessage(ctx, evt)
		if err != nil {
			slog.ErrorContext(ctx, "failed to ingest message", "error", err, "event_id", envelope.EventID)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to process event"})
			return
		}
		c.JSON(http.StatusOK, dto.SlackEventResponse{Status: "ok", Dropped: string(result.Dropped)})

	case innerEventReactionAdded:
		var evt ingest.ReactionEvent
		if err := json.Unmarshal(envelope.Event, &evt); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid event"})
			return
		}
		if err := h.service.HandleReaction(ctx, evt); err != nil {
			slog.ErrorContext(ctx, "failed to ingest reaction", "error", err, "event_id", envelope.EventID)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to process event"})
			return
		}
		c.JSON(http.StatusOK, dto.SlackEventResponse{Status: "ok"})

	default:
		slog.DebugContext(ctx, "ignoring slack event", "event_type", inner.Type)
		c.JSON(http.StatusOK, dto.SlackEventResponse{Status: "ignored"})
	}
}
