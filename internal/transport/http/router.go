package http

import (
	"encoding/json"
	"net/http"
	"time"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server exposes the engine to a local UI: REST for menus and settings,
// a websocket for playing sessions.
type Server struct {
	engine *app.Engine
	ws     *WSHandler
	log    logrus.FieldLogger
}

func NewServer(engine *app.Engine, log logrus.FieldLogger) *Server {
	return &Server{
		engine: engine,
		ws:     NewWSHandler(engine, log),
		log:    log.WithField("component", "http"),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/categories", s.handleCategories)
	r.Get("/api/progress", s.handleProgress)
	r.Delete("/api/progress", s.handleClearProgress)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/history/{id}", s.handleHistoryEntry)
	r.Get("/api/settings", s.handleSettings)
	r.Put("/api/settings", s.handleUpdateSettings)
	r.Get("/ws", s.ws.ServeWS)
	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.engine.Health()
	status := "ok"
	if health.Degraded() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		app.Health
	}{status, health})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.engine.Categories(r.Context())
	if err != nil {
		s.log.WithError(err).Error("list categories")
		writeError(w, http.StatusInternalServerError, "question bank unavailable")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Progress())
}

func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearProgress()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	mode := domain.Mode(r.URL.Query().Get("mode"))
	switch mode {
	case "", domain.ModeDaily, domain.ModeRandom, domain.ModeCategory:
	default:
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	entries := s.engine.History(mode)
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, e := range s.engine.History("") {
		if e.ID == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, domain.ErrHistoryEntryNotFound.Error())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Settings().Get())
}

type settingsUpdate struct {
	FontScale        *app.FontScale `json:"fontScale"`
	SoundEnabled     *bool          `json:"soundEnabled"`
	QuestionsPerQuiz *int           `json:"questionsPerQuiz"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	store := s.engine.Settings()
	next := store.Get()
	if req.QuestionsPerQuiz != nil {
		next.QuestionsPerQuiz = *req.QuestionsPerQuiz
	}
	if req.FontScale != nil {
		next.FontScale = *req.FontScale
	}
	if req.SoundEnabled != nil {
		next.SoundEnabled = *req.SoundEnabled
	}
	if err := store.Replace(next); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, store.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Code: http.StatusText(status), Message: msg})
}
