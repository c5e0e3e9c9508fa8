package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/chatbot"
	"github.com/hyperengineering/protrack/internal/generation"
	"github.com/hyperengineering/protrack/internal/store"
	"github.com/hyperengineering/protrack/internal/types"
	"github.com/hyperengineering/protrack/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RoadmapGenerator produces a roadmap draft from a validated form.
type RoadmapGenerator interface {
	Generate(ctx context.Context, form category.Form, start types.Date, totalDays int) (*generation.Draft, error)
}

// ChatDispatcher applies a chatbot action to a loaded roadmap and persists it.
type ChatDispatcher interface {
	Apply(ctx context.Context, r *types.Roadmap, action string, data map[string]any) (*chatbot.Result, error)
}

// Deps are the collaborators a Handler needs. Limiter is optional.
type Deps struct {
	Store      store.Store
	Generator  RoadmapGenerator
	Dispatcher ChatDispatcher
	Verifier   TokenVerifier
	Limiter    *RateLimiter
	Model      string
	Version    string
}

// Handler implements the API handlers
type Handler struct {
	store      store.Store
	generator  RoadmapGenerator
	dispatcher ChatDispatcher
	verifier   TokenVerifier
	limiter    *RateLimiter
	model      string
	version    string
}

// NewHandler creates a new Handler from its dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:      d.Store,
		generator:  d.Generator,
		dispatcher: d.Dispatcher,
		verifier:   d.Verifier,
		limiter:    d.Limiter,
		model:      d.Model,
		version:    d.Version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		Model:        h.model,
		RoadmapCount: stats.RoadmapCount,
	})
}

// CreateRoadmap handles POST /api/roadmap/create
func (h *Handler) CreateRoadmap(w http.ResponseWriter, r *http.Request) {
	userID := MustUserIDFromContext(r.Context())

	var req types.CreateRoadmapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateCreateRoadmapRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	start, err := types.ParseDate(req.StartDate)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c := types.Category(req.Category)

	form, err := category.Decode(c, req.FormData)
	if err != nil {
		MapError(w, r, err)
		return
	}

	draft, err := h.generator.Generate(r.Context(), form, start, 0)
	if err != nil {
		MapError(w, r, err)
		return
	}

	roadmap := &types.Roadmap{
		UserID:         userID,
		Category:       c,
		Title:          draft.Title,
		Description:    draft.Description,
		FormData:       req.FormData,
		TotalDays:      draft.TotalDays,
		StartDate:      start,
		DailyTasks:     generation.Materialize(draft, start),
		ChatbotHistory: []types.HistoryEntry{},
	}
	if err := h.store.CreateRoadmap(r.Context(), roadmap); err != nil {
		MapError(w, r, err)
		return
	}

	slog.Info("roadmap created",
		"component", "api",
		"roadmap_id", roadmap.ID,
		"category", string(c),
		"total_days", roadmap.TotalDays,
	)
	writeJSON(w, http.StatusCreated, types.CreateRoadmapResponse{ID: roadmap.ID, Roadmap: roadmap})
}

// ListRoadmaps handles GET /api/roadmap/user
func (h *Handler) ListRoadmaps(w http.ResponseWriter, r *http.Request) {
	userID := MustUserIDFromContext(r.Context())

	filter := r.URL.Query().Get("category")
	if verr := validation.ValidateCategoryFilter(filter); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid category filter", []validation.ValidationError{*verr})
		return
	}

	roadmaps, err := h.store.ListRoadmaps(r.Context(), userID, types.Category(filter))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roadmaps)
}

// GetRoadmap handles GET /api/roadmap/{roadmapId}
func (h *Handler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	roadmap, ok := h.loadRoadmap(w, r, chi.URLParam(r, "roadmapId"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}

// UpdateTask handles PATCH /api/roadmap/{roadmapId}/task/{taskId}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Completed == nil {
		WriteProblem(w, r, http.StatusBadRequest, "completed must be a boolean")
		return
	}

	roadmap, ok := h.loadRoadmap(w, r, chi.URLParam(r, "roadmapId"))
	if !ok {
		return
	}

	taskID := chi.URLParam(r, "taskId")
	i := findTaskIndex(roadmap.DailyTasks, taskID)
	if i < 0 {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Task %s not found", taskID))
		return
	}
	roadmap.DailyTasks[i].Completed = *req.Completed

	if err := h.store.SaveRoadmap(r.Context(), roadmap); err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}

// Chatbot handles POST /api/roadmap/chatbot/{id}
func (h *Handler) Chatbot(w http.ResponseWriter, r *http.Request) {
	var req types.ChatbotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	// A non-string action is treated as missing.
	action, _ := req.Action.(string)
	if errs := validation.ValidateChatbotRequest(action, req.Data); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	roadmap, ok := h.loadRoadmap(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	result, err := h.dispatcher.Apply(r.Context(), roadmap, action, req.Data)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ChatbotResponse{Roadmap: result.Roadmap, Message: result.Message})
}

// loadRoadmap fetches a roadmap owned by the caller, writing the error
// response itself when it cannot.
func (h *Handler) loadRoadmap(w http.ResponseWriter, r *http.Request, id string) (*types.Roadmap, bool) {
	userID := MustUserIDFromContext(r.Context())

	// Ids are ULIDs; anything else cannot exist.
	if validation.ValidateULID("roadmapId", id) != nil {
		MapError(w, r, store.ErrNotFound)
		return nil, false
	}

	roadmap, err := h.store.GetRoadmap(r.Context(), userID, id)
	if err != nil {
		MapError(w, r, err)
		return nil, false
	}
	return roadmap, true
}

// findTaskIndex resolves a task by stable id, or by zero-based position for
// older clients.
func findTaskIndex(tasks []types.DailyTask, taskID string) int {
	for i, t := range tasks {
		if t.ID == taskID {
			return i
		}
	}
	if pos, err := strconv.Atoi(taskID); err == nil && pos >= 0 && pos < len(tasks) {
		return pos
	}
	return -1
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
