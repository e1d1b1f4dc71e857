package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/command"
	"github.com/dvloznov/finance-assistant/internal/command/records"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/rs/zerolog"
)

// CommandRunner executes administrator commands.
type CommandRunner interface {
	Execute(ctx context.Context, command string) (*command.Outcome, error)
}

// AdminHandler handles the administrator command endpoints.
type AdminHandler struct {
	runner  CommandRunner
	records records.Repository
	log     zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(runner CommandRunner, recs records.Repository, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{runner: runner, records: recs, log: log}
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Message  string `json:"message"`
	RecordID string `json:"recordId,omitempty"`
}

// Command handles POST /api/admin/command
func (h *AdminHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.runner.Execute(r.Context(), req.Command)
	if err != nil {
		// The service has already logged the failure with its details.
		middleware.WriteError(w, command.KindOf(err).HTTPStatus(), command.PublicMessage(err))
		return
	}

	status := out.Result.Status
	if status == 0 {
		status = http.StatusOK
	}
	middleware.WriteJSON(w, status, commandResponse{
		Message:  out.Result.Message,
		RecordID: out.RecordID,
	})
}

// ListCommands handles GET /api/admin/commands
func (h *AdminHandler) ListCommands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := records.Filter{
		Status: records.Status(q.Get("status")),
		Action: q.Get("action"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), 50); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	recs, err := h.records.List(r.Context(), filter)
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to list command records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list commands")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"commands": recs,
		"count":    len(recs),
	})
}

// GetCommand handles GET /api/admin/commands/{id}
func (h *AdminHandler) GetCommand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Command ID is required")
		return
	}

	rec, err := h.records.Get(r.Context(), id)
	if errors.Is(err, records.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Command not found")
		return
	}
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Str("record_id", id).Msg("Failed to get command record")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get command")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rec)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
