// Package server exposes the assistant over HTTP for chat integrations.
//
// Endpoints:
//   - POST /ask: answer one chat message (JSON in, JSON out)
//   - GET /health: liveness probe
//   - GET /metrics: Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"invoiceqa/internal/assistant"
	"invoiceqa/internal/logger"
	"invoiceqa/pkg/models"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Asker answers chat messages
type Asker interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Reply, error)
}

// AskRequest is the body of POST /ask
type AskRequest struct {
	ChatID       string `json:"chat_id"`
	SenderID     string `json:"sender_id"`
	Text         string `json:"text"`
	GroupName    string `json:"group_name,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	CustomerCode string `json:"customer_code,omitempty"`
}

// AskResponse is the reply to POST /ask
type AskResponse struct {
	RequestID  string  `json:"request_id"`
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// Server serves the HTTP API
type Server struct {
	asker  Asker
	admins map[string]bool
	log    zerolog.Logger
}

// New creates a Server. Senders listed in adminIDs may update payment status.
func New(asker Asker, adminIDs []string) *Server {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Server{
		asker:  asker,
		admins: admins,
		log:    logger.WithComponent("server"),
	}
}

// Handler returns the routes of the API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	const op = "ListenAndServe"

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutdown signal received, stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown failed: %w", op, err)
	}
	return nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := s.log.With().Str("request_id", requestID).Logger()
	w.Header().Set(requestIDHeader, requestID)

	var body AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: requestID, Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: requestID, Error: "text is required"})
		return
	}

	req := assistant.Request{
		ChatID:    body.ChatID,
		Text:      body.Text,
		GroupName: body.GroupName,
		Admin:     body.SenderID != "" && s.admins[body.SenderID],
	}
	if body.CustomerName != "" || body.CustomerCode != "" {
		req.Customer = &models.CustomerContext{
			CustomerName: body.CustomerName,
			CustomerCode: body.CustomerCode,
			GroupName:    body.GroupName,
		}
	}

	start := time.Now()
	ctx := logger.IntoContext(r.Context(), log)
	reply, err := s.asker.Ask(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("chat_id", body.ChatID).Msg("Ask failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{RequestID: requestID, Error: "unable to access business data, please try again later"})
		return
	}

	resp := AskResponse{
		RequestID: requestID,
		Text:      reply.Text,
		Source:    string(reply.Source),
	}
	if reply.Intent != nil {
		resp.Intent = string(reply.Intent.Kind)
		resp.Confidence = reply.Intent.Confidence
	}

	log.Info().
		Str("chat_id", body.ChatID).
		Str("source", resp.Source).
		Str("intent", resp.Intent).
		Bool("admin", req.Admin).
		Dur("duration", time.Since(start)).
		Msg("Request answered")

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
