package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/fitbod/fitcoach/internal/coach"
	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/nutrition"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
	maxChannelBody      = 1 << 20
)

// chatRequest is the chat endpoint body.
type chatRequest struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	ChatID  string `json:"chatId"`
}

// chatError is the chat endpoint failure body.
type chatError struct {
	Error            string `json:"error"`
	DetectedLanguage string `json:"detectedLanguage"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusInternalServerError, chatError{
			Error:            coach.UserMessage(err),
			DetectedLanguage: "en",
		})
		return
	}

	resp, err := s.chat.Handle(r.Context(), coach.Request{
		Message:       body.Message,
		Action:        body.Action,
		ChatID:        body.ChatID,
		Authorization: r.Header.Get("Authorization"),
	})
	if err != nil {
		detected := "en"
		var reqErr *coach.RequestError
		if errors.As(err, &reqErr) && reqErr.DetectedLanguage != "" {
			detected = reqErr.DetectedLanguage
		}
		s.log.Error("chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, chatError{
			Error:            coach.UserMessage(err),
			DetectedLanguage: detected,
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	p, err := s.store.GetProfile(r.Context(), u.ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": nutrition.ErrProfileNotFound.Error()})
		return
	}
	if err != nil {
		s.log.Error("loading profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleNutrition(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	p, err := s.store.GetProfile(r.Context(), u.ID)
	if errors.Is(err, storage.ErrNotFound) {
		p, err = nil, nil
	}
	if err != nil {
		s.log.Error("loading profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	targets, err := nutrition.Calculate(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	chatID := chi.URLParam(r, "chatID")

	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, maxMessageLimit)
	}

	rows, err := s.store.RecentMessages(r.Context(), u.ID, chatID, limit)
	if err != nil {
		s.log.Error("loading chat messages", "error", err, "chat_id", chatID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []models.ChatMessageRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "name") != s.paywall.Channel() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown channel"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChannelBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(s.paywall.ServeRPC(r.Context(), body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
