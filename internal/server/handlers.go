package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/chain"
	"github.com/marketlens/optionchain/internal/config"
	"github.com/marketlens/optionchain/internal/engine"
	"github.com/marketlens/optionchain/internal/expiry"
	"github.com/marketlens/optionchain/internal/export"
	"github.com/marketlens/optionchain/internal/prefs"
	"github.com/marketlens/optionchain/internal/replay"
)

type Server struct {
	manager    *engine.Manager
	prefsStore *prefs.Store
	calendar   *expiry.Calendar
	reload     *ReloadManager
	config     *config.Config
	logger     *zap.Logger
}

func NewServer(manager *engine.Manager, prefsStore *prefs.Store, calendar *expiry.Calendar, reload *ReloadManager, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		manager:    manager,
		prefsStore: prefsStore,
		calendar:   calendar,
		reload:     reload,
		config:     cfg,
		logger:     logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// session resolves the chain named in the URL, translating lookup errors
// into the right status. Unknown symbols and missing recordings both 404
// but with distinct messages.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	symbol := chi.URLParam(r, "symbol")
	expiryParam := chi.URLParam(r, "expiry")

	session, err := s.manager.Session(symbol, expiryParam)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrUnknownSymbol):
			writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		case errors.Is(err, replay.ErrNotFound):
			writeError(w, http.StatusNotFound, "no recording for "+symbol+"/"+expiryParam)
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return session, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"loaded_at": s.reload.LoadedAt().Format(time.RFC3339),
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols":    s.config.Symbols,
		"recordings": s.reload.LoadedKeys(),
	})
}

func (s *Server) handleExpiries(w http.ResponseWriter, r *http.Request) {
	count := s.config.Chain.ExpiryCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expiries": s.calendar.Upcoming(count),
	})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	// First paint needs data before the poller runs.
	if session.Version() == 0 {
		if err := session.Refresh(r.Context(), false); err != nil && !errors.Is(err, engine.ErrExhausted) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, session.View(s.prefsStore.Current(r.Context())))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	view := session.View(s.prefsStore.Current(r.Context()))
	writeJSON(w, http.StatusOK, view.Stats)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	err := session.Refresh(r.Context(), true)
	switch {
	case errors.Is(err, engine.ErrCooldown):
		writeError(w, http.StatusTooManyRequests, "refresh throttled")
	case errors.Is(err, engine.ErrExhausted):
		writeError(w, http.StatusConflict, "recording exhausted")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"version": session.Version()})
	}
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Field == "" {
		writeError(w, http.StatusBadRequest, "field is required")
		return
	}

	column, direction := session.ToggleSort(body.Field)
	writeJSON(w, http.StatusOK, map[string]any{
		"column":    column,
		"direction": direction,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	symbol := chi.URLParam(r, "symbol")
	expiryParam := chi.URLParam(r, "expiry")

	rows := session.Rows()
	filtered := false
	if r.URL.Query().Get("filtered") == "true" {
		p := s.prefsStore.Current(r.Context())
		step, _ := config.StrikeStepFor(symbol)
		visible := chain.FilterByRange(rows, p.StrikeRange, session.Spot(), step)
		filtered = len(visible) < len(rows)
		rows = visible
	}

	meta := export.Metadata{
		Symbol:     symbol,
		Expiry:     expiryParam,
		Spot:       session.Spot(),
		Filtered:   filtered,
		ExportedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+symbol+"_"+expiryParam+`.csv"`)

	if err := export.WriteCSV(w, rows, meta); err != nil {
		if errors.Is(err, export.ErrEmptyChain) {
			// Nothing was written, headers can still change.
			w.Header().Del("Content-Disposition")
			writeError(w, http.StatusNotFound, "empty chain, nothing to export")
			return
		}
		s.logger.Warn("csv export failed", zap.Error(err))
	}
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefsStore.Current(r.Context()))
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var patch prefs.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed preferences patch")
		return
	}
	writeJSON(w, http.StatusOK, s.prefsStore.Save(r.Context(), patch))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	result, err := s.reload.Reload(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
