package in

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	sessiondto "mindtrack/internal/modules/session/dto"
	sessionin "mindtrack/internal/modules/session/port/in"
	"mindtrack/internal/platform/clock"
	apperrors "mindtrack/internal/platform/errors"
	"mindtrack/internal/platform/id"
)

const (
	maxJSONBody         = 1 << 20
	maxFrameBody        = 10<<20 + 1<<16
	frameField          = "file"
	requestIDHeader     = "X-Request-ID"
	defaultHistoryLimit = 20
)

type HTTPInfo struct {
	Name     string
	Version  string
	Model    string
	Detector bool
}

type HTTPHandler struct {
	usecase sessionin.Usecase
	logger  *slog.Logger
	clock   clock.Clock
	ids     id.Generator
	origins []string
	info    HTTPInfo
}

func NewHTTPHandler(usecase sessionin.Usecase, logger *slog.Logger, clk clock.Clock, ids id.Generator, origins []string, info HTTPInfo) *HTTPHandler {
	return &HTTPHandler{usecase: usecase, logger: logger, clock: clk, ids: ids, origins: origins, info: info}
}

// Handler returns the routed API wrapped in CORS and request logging.
func (h *HTTPHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h.logRequests(h.cors(mux))
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/info", h.handleInfo)

	mux.HandleFunc("POST /api/sessions/create", h.handleCreate)
	mux.HandleFunc("GET /api/sessions/current", h.handleCurrent)
	mux.HandleFunc("POST /api/sessions/topic/complete", h.handleCompleteTopic)
	mux.HandleFunc("POST /api/sessions/pause", h.handlePause)
	mux.HandleFunc("POST /api/sessions/resume", h.handleResume)
	mux.HandleFunc("GET /api/sessions/summary", h.handleSummary)
	mux.HandleFunc("DELETE /api/sessions/delete", h.handleDelete)
	mux.HandleFunc("GET /api/sessions/history", h.handleHistory)

	mux.HandleFunc("POST /api/emotions/detect", h.handleDetect)
	mux.HandleFunc("POST /api/emotions/record", h.handleRecord)
	mux.HandleFunc("GET /api/emotions/status", h.handleEmotionStatus)

	mux.HandleFunc("POST /api/reschedule/trigger", h.handleReschedule)
	mux.HandleFunc("GET /api/reschedule/check-ollama", h.handleCheckAllocator)
}

type createRequest struct {
	TotalTimeMinutes int `json:"total_time_minutes"`
	Subjects         []struct {
		Name   string `json:"name"`
		Topics []struct {
			Name  string `json:"name"`
			Level string `json:"level"`
		} `json:"topics"`
	} `json:"subjects"`
}

type topicJSON struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Subject         string     `json:"subject"`
	Level           string     `json:"level"`
	TimeMinutes     int        `json:"time_minutes"`
	Status          string     `json:"status,omitempty"`
	ActualTimeSpent int        `json:"actual_time_spent"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type backlogJSON struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "timestamp": h.now()})
}

func (h *HTTPHandler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"name":                      h.info.Name,
		"version":                   h.info.Version,
		"ollama_model":              h.info.Model,
		"emotion_detection_enabled": h.info.Detector,
	})
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req := createRequest{}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	input := sessiondto.CreateInput{TotalMinutes: req.TotalTimeMinutes}
	for _, subject := range req.Subjects {
		in := sessiondto.SubjectInput{Name: subject.Name}
		for _, t := range subject.Topics {
			in.Topics = append(in.Topics, sessiondto.TopicInput{Name: t.Name, Level: t.Level})
		}
		input.Subjects = append(input.Subjects, in)
	}
	out, err := h.usecase.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":         out.ID,
		"message":            "Session created successfully",
		"total_topics":       len(out.Topics),
		"total_time_minutes": out.TotalMinutes,
		"topics":             topicsJSON(out.Topics),
	})
}

func (h *HTTPHandler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Current(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"session_id":              out.SessionID,
		"state":                   out.State,
		"topic":                   toTopicJSON(out.Topic),
		"index":                   out.TopicIndex,
		"total_topics":            out.TotalTopics,
		"timer_remaining_seconds": out.RemainingSeconds,
		"is_paused":               out.Paused,
	})
}

func (h *HTTPHandler) handleCompleteTopic(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Completed *bool `json:"completed"`
	}{}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Completed == nil {
		h.writeError(w, r, fmt.Errorf("%w: completed is required", apperrors.ErrInvalidInput))
		return
	}
	out, err := h.usecase.AdvanceTopic(r.Context(), sessiondto.AdvanceInput{Completed: *req.Completed})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if out.Finished {
		h.writeJSON(w, http.StatusOK, map[string]any{"message": "Session completed", "session_complete": true})
		return
	}
	body := map[string]any{"message": "Topic updated, moving to next", "session_complete": false}
	if out.Next != nil {
		body["next_topic"] = out.Next.Name
		body["next_subject"] = out.Next.Subject
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *HTTPHandler) handlePause(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usecase.Pause(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Session paused"})
}

func (h *HTTPHandler) handleResume(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usecase.Resume(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Session resumed"})
}

func (h *HTTPHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	backlog := make([]backlogJSON, 0, len(out.Backlog))
	for _, b := range out.Backlog {
		backlog = append(backlog, backlogJSON{Name: b.Name, Subject: b.Subject})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"session_id":           out.SessionID,
		"state":                out.State,
		"total_topics":         out.TotalTopics,
		"completed_topics":     out.CompletedCount,
		"backlog_topics":       out.BacklogCount,
		"total_time_allocated": out.TotalAllocatedMinutes,
		"total_time_spent":     out.StudiedMinutes,
		"reschedule_count":     out.RescheduleCount,
		"emotion_timeline":     out.EmotionTimeline,
		"emotion_distribution": out.EmotionDistribution,
		"topics":               topicsJSON(out.Topics),
		"backlog":              backlog,
		"created_at":           out.CreatedAt,
		"completed_at":         optionalTime(out.CompletedAt),
	})
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.Delete(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Session deleted"})
}

func (h *HTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", apperrors.ErrInvalidInput))
			return
		}
		limit = n
	}
	entries, err := h.usecase.History(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"session_id":       e.SessionID,
			"state":            e.State,
			"total_topics":     e.TotalTopics,
			"completed_topics": e.CompletedCount,
			"backlog_topics":   e.BacklogCount,
			"total_minutes":    e.TotalMinutes,
			"studied_minutes":  e.StudiedMinutes,
			"reschedule_count": e.RescheduleCount,
			"created_at":       e.CreatedAt,
			"completed_at":     optionalTime(e.CompletedAt),
			"report_path":      e.ReportPath,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *HTTPHandler) handleDetect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBody)
	file, _, err := r.FormFile(frameField)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: multipart field %q is required", apperrors.ErrInvalidInput, frameField))
		return
	}
	defer file.Close()
	frame, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: read frame: %v", apperrors.ErrInvalidInput, err))
		return
	}
	out, err := h.usecase.DetectEmotion(r.Context(), frame)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, emotionJSON(out))
}

func (h *HTTPHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Emotion string `json:"emotion"`
	}{}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.usecase.RecordEmotion(r.Context(), req.Emotion)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, emotionJSON(out))
}

func (h *HTTPHandler) handleEmotionStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.EmotionStatus(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body := map[string]any{"recent_emotions": out.Recent, "trigger_ready": out.Trigger.Ready}
	if out.Trigger.Ready {
		body["message"] = out.Trigger.Message
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *HTTPHandler) handleReschedule(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Reschedule(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Schedule updated",
		"old_schedule":      allocationsJSON(out.OldSchedule),
		"new_schedule":      allocationsJSON(out.NewSchedule),
		"topics_affected":   out.TopicsAffected,
		"remaining_minutes": out.RemainingMinutes,
		"reschedule_count":  out.Session.RescheduleCount,
	})
}

func (h *HTTPHandler) handleCheckAllocator(w http.ResponseWriter, r *http.Request) {
	out := h.usecase.CheckAllocator(r.Context())
	status := "disconnected"
	if out.Connected {
		status = "connected"
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"connected": out.Connected,
		"model":     out.Model,
		"message":   out.Message,
	})
}

func (h *HTTPHandler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin)) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = h.ids.New()
		}
		w.Header().Set(requestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		h.logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("encode response", "error", err)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable && status != http.StatusBadGateway {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, map[string]any{"error": err.Error(), "timestamp": h.now()})
}

func (h *HTTPHandler) now() string {
	return h.clock.Now().UTC().Format(time.RFC3339)
}

// StatusFor maps an error onto the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrActiveSessionExists),
		errors.Is(err, sessionin.ErrInvalidState),
		errors.Is(err, sessionin.ErrNoActiveTopic),
		errors.Is(err, sessionin.ErrNoRemainingTopics),
		errors.Is(err, sessionin.ErrInsufficientRemainingTime):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAllocatorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrAllocatorInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: decode request body: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

func toTopicJSON(t sessiondto.TopicOutput) topicJSON {
	return topicJSON{
		ID:              t.Key,
		Name:            t.Name,
		Subject:         t.Subject,
		Level:           t.Level,
		TimeMinutes:     t.TimeMinutes,
		Status:          t.Status,
		ActualTimeSpent: t.ElapsedSeconds / 60,
		StartedAt:       optionalTime(t.StartedAt),
		CompletedAt:     optionalTime(t.CompletedAt),
	}
}

func topicsJSON(topics []sessiondto.TopicOutput) []topicJSON {
	out := make([]topicJSON, 0, len(topics))
	for _, t := range topics {
		out = append(out, toTopicJSON(t))
	}
	return out
}

func allocationsJSON(allocations []sessiondto.AllocationOutput) []topicJSON {
	out := make([]topicJSON, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, topicJSON{ID: a.Key, Name: a.Name, Subject: a.Subject, Level: a.Level, TimeMinutes: a.TimeMinutes})
	}
	return out
}

func emotionJSON(out sessiondto.EmotionOutput) map[string]any {
	return map[string]any{
		"emotion":       out.Emotion,
		"buffer":        out.Buffer,
		"trigger_ready": out.Trigger.Ready,
		"message":       out.Trigger.Message,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
