package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/progress"
	"github.com/JakeFAU/progress-monitor/internal/progress/sinks"
	"github.com/JakeFAU/progress-monitor/internal/registry"
)

const (
	defaultMonitorLimit = 100
	maxMonitorLimit     = 1000
)

// Board is the read side of sinks.Board.
type Board interface {
	Snapshot() []sinks.Entry
	Get(monitor string) (sinks.Entry, bool)
}

// Resolver exposes configured monitor definitions.
type Resolver interface {
	Resolve(name string, overrides ...registry.Override) (registry.MonitorOptions, error)
}

// ProgressHandler exposes read-only monitor progress endpoints.
type ProgressHandler struct {
	board    Board
	resolver Resolver
	logger   *zap.Logger
}

// NewProgressHandler wires the board, resolver and logger. Either source may
// be nil; the matching routes then answer 503.
func NewProgressHandler(board Board, resolver Resolver, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{board: board, resolver: resolver, logger: logger}
}

// ListMonitors handles GET /v1/monitors?state=&limit=&offset=. It returns
// {"monitors": [...]} sorted by name, 400 for invalid filters, or 503 when no
// board is wired.
func (h *ProgressHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeError(w, http.StatusServiceUnavailable, "progress board unavailable")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultMonitorLimit, maxMonitorLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state != "" {
		if state, err = parseState(state); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	entries := make([]sinks.Entry, 0)
	for _, e := range h.board.Snapshot() {
		if state == "" || e.State == state {
			entries = append(entries, e)
		}
	}
	entries = entries[min(offset, len(entries)):]
	entries = entries[:min(limit, len(entries))]
	writeJSON(w, http.StatusOK, map[string]any{"monitors": entries})
}

// GetMonitor handles GET /v1/monitors/{name}. It returns {"monitor": {...}}
// or 404 when the monitor has not notified yet.
func (h *ProgressHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeError(w, http.StatusServiceUnavailable, "progress board unavailable")
		return
	}
	name, err := parseName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, ok := h.board.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monitor": entry})
}

// GetOptions handles GET /v1/monitors/{name}/options. It returns the
// inherited definition as {"options": {...}}, 404 for unknown monitors, or 422
// when the definition is broken.
func (h *ProgressHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "monitor registry unavailable")
		return
	}
	name, err := parseName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := h.resolver.Resolve(name)
	if err != nil {
		var unknown *registry.UnknownMonitorError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, "monitor not configured")
			return
		}
		h.logger.Warn("resolve monitor options failed", zap.String("monitor", name), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monitor": name, "options": opts})
}

func parseName(r *http.Request) (string, error) {
	name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))
	if name == "" {
		return "", errors.New("name is required")
	}
	return name, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func parseState(input string) (string, error) {
	switch strings.ToLower(input) {
	case "ready":
		return progress.StateReady.String(), nil
	case "running":
		return progress.StateRunning.String(), nil
	case "done", "success", "completed":
		return progress.StateDone.String(), nil
	case "aborted", "error", "failed":
		return progress.StateAborted.String(), nil
	default:
		return "", errors.New("invalid state")
	}
}
