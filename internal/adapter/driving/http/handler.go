// Package httphandler is the HTTP driving adapter: it receives webhook
// deliveries, authenticates them, and drives the scan pipeline.
package httphandler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/guardhook/internal/application"
)

// maxPayloadBytes caps webhook bodies. GitHub caps deliveries at 25 MB.
const maxPayloadBytes = 25 << 20

// Handler is the HTTP driving adapter that serves the webhook and
// diagnostic endpoints.
type Handler struct {
	pipeline *application.PipelineService
	secret   string
	logger   *slog.Logger
}

// NewHandler creates a Handler. secret is the shared webhook secret; empty
// disables signature verification.
func NewHandler(pipeline *application.PipelineService, secret string, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		secret:   secret,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/webhook", h.HandleWebhook)
	mux.HandleFunc("POST /api/v1/scan/pr/{owner}/{repo}/{number}", h.ManualScan)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// HandleWebhook authenticates and classifies a webhook delivery, runs the
// pipeline, and acknowledges with the outcome. Only an authentication
// failure produces a non-200 response: everything downstream is surfaced in
// the acknowledgement body so the event source never sees cause to retry
// the whole delivery.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	eventType := r.Header.Get("X-GitHub-Event")
	signature := r.Header.Get("X-Hub-Signature-256")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Error("body read failed", "delivery_id", deliveryID, "event", eventType, "error", err)
		writeJSON(w, http.StatusOK, application.Outcome{
			State:      application.StateFailed,
			DeliveryID: deliveryID,
			Detail:     "failed to read body",
		})
		return
	}

	if h.secret != "" {
		if !validSignature(payload, signature, h.secret) {
			h.logger.Warn("webhook signature rejected",
				"delivery_id", deliveryID,
				"event", eventType,
				"signature_present", signature != "",
			)
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	} else if signature != "" {
		h.logger.Warn("webhook signature present but no secret configured, skipping verification",
			"delivery_id", deliveryID,
		)
	}

	writeJSON(w, http.StatusOK, h.dispatch(r, eventType, deliveryID, payload))
}

// dispatch decodes the payload for the event type and runs the pipeline.
// Unknown event types are acknowledged as ignored without decoding; a
// payload that fails to decode is acknowledged as failed. Past
// authentication, the delivery is always acknowledged with its outcome so
// the event source never sees cause to redeliver.
func (h *Handler) dispatch(r *http.Request, eventType, deliveryID string, payload []byte) application.Outcome {
	switch eventType {
	case "pull_request":
		var p pullRequestPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return h.decodeFailure(deliveryID, eventType, err)
		}
		return h.pipeline.HandleEvent(r.Context(), p.toEvent(deliveryID))

	case "push":
		var p pushPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return h.decodeFailure(deliveryID, eventType, err)
		}
		return h.pipeline.HandleEvent(r.Context(), p.toEvent(deliveryID))

	case "pull_request_review":
		var p reviewPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return h.decodeFailure(deliveryID, eventType, err)
		}
		return h.pipeline.HandleEvent(r.Context(), p.toEvent(deliveryID))

	default:
		h.logger.Info("event type not handled", "delivery_id", deliveryID, "event", eventType)
		return application.Outcome{
			State:      application.StateIgnored,
			DeliveryID: deliveryID,
			Detail:     "event type not handled: " + eventType,
		}
	}
}

// decodeFailure acknowledges an undecodable payload as a failed outcome.
func (h *Handler) decodeFailure(deliveryID, eventType string, err error) application.Outcome {
	h.logger.Error("payload decode failed", "delivery_id", deliveryID, "event", eventType, "error", err)
	return application.Outcome{
		State:      application.StateFailed,
		DeliveryID: deliveryID,
		Detail:     "payload decode failed for " + eventType + " event",
	}
}

// ManualScan re-runs the pipeline for a pull request outside the webhook
// trigger, for diagnostics.
func (h *Handler) ManualScan(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid PR number")
		return
	}

	h.logger.Info("manual scan requested", "repo", owner+"/"+repo, "pr", number)

	outcome := h.pipeline.RunPullRequest(r.Context(), owner, repo, number)
	writeJSON(w, http.StatusOK, outcome)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
