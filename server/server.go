// Package server exposes the conversation service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbxark/voiceform/agent"
	"github.com/tbxark/voiceform/stt"
	"github.com/tbxark/voiceform/types"
)

const defaultMaxUploadBytes = 32 << 20

// Conversations is implemented by *agent.Service.
type Conversations interface {
	Start(ctx context.Context, audio stt.Audio) (*agent.Response, error)
	Continue(ctx context.Context, id string, audio stt.Audio) (*agent.Response, error)
}

type Server struct {
	conversations  Conversations
	maxUploadBytes int64
	mux            *http.ServeMux
}

func New(conversations Conversations, maxUploadBytes int64) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{
		conversations:  conversations,
		maxUploadBytes: maxUploadBytes,
		mux:            http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /process-audio", s.handleProcessAudio)
	s.mux.HandleFunc("POST /submit-audio", s.handleSubmitAudio)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

// handleProcessAudio runs the first turn of a new conversation.
func (s *Server) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	audio, err := s.readAudio(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.conversations.Start(r.Context(), audio)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload(resp))
}

// handleSubmitAudio answers the prompt of an open session.
func (s *Server) handleSubmitAudio(w http.ResponseWriter, r *http.Request) {
	audio, err := s.readAudio(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := r.FormValue("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}
	resp, err := s.conversations.Continue(r.Context(), id, audio)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload(resp))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readAudio(w http.ResponseWriter, r *http.Request) (stt.Audio, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return stt.Audio{}, fmt.Errorf("failed to parse form: %w", err)
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return stt.Audio{}, errors.New("audio file is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return stt.Audio{}, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return stt.Audio{}, errors.New("audio file is empty")
	}
	return stt.Audio{Name: header.Filename, Data: data}, nil
}

func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agent.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, errors.New("session_id not found"))
	case errors.Is(err, stt.ErrEmptyAudio):
		writeError(w, http.StatusBadRequest, err)
	default:
		slog.Error("Turn failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
	}
}

// payload renders a response in the wire shape: data for a finished record,
// data_partial plus the prompt otherwise.
func payload(resp *agent.Response) map[string]any {
	if resp.Status == types.StatusComplete {
		return map[string]any{
			"status":     resp.Status,
			"data":       resp.Record,
			"transcript": resp.Transcript,
		}
	}
	return map[string]any{
		"status":         resp.Status,
		"session_id":     resp.SessionID,
		"missing_fields": resp.MissingFields,
		"message":        resp.Message,
		"transcript":     resp.Transcript,
		"data_partial":   resp.Record,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
