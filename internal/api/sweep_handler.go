package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/redact"
	"github.com/phrazzld/groupwork-api/internal/scheduler"
)

// SweepRunner runs deadline checks on demand.
type SweepRunner interface {
	RunAll(ctx context.Context) scheduler.Report
	RunCheck(ctx context.Context, name string) (scheduler.Result, error)
}

// SweepHandler exposes the deadline sweep to an external cron.
type SweepHandler struct {
	runner SweepRunner
	logger *slog.Logger
}

// NewSweepHandler creates a SweepHandler.
func NewSweepHandler(runner SweepRunner, logger *slog.Logger) *SweepHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepHandler{
		runner: runner,
		logger: logger.With(slog.String("component", "sweep_handler")),
	}
}

// CheckScheduled handles POST /api/notifications/check-scheduled. With
// ?check=<name> only that check runs. A check failure does not fail the
// request: the response is 200 with partial set.
func (h *SweepHandler) CheckScheduled(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var report scheduler.Report
	if name := r.URL.Query().Get("check"); name != "" {
		res, err := h.runner.RunCheck(r.Context(), name)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		report = scheduler.Report{Results: []scheduler.Result{res}, Total: res.Count, Partial: res.Err != nil}
	} else {
		report = h.runner.RunAll(r.Context())
	}

	resp := SweepResponse{
		Results: make([]CheckResultResponse, 0, len(report.Results)),
		Total:   report.Total,
		Partial: report.Partial,
	}
	for _, res := range report.Results {
		item := CheckResultResponse{
			Name:       res.Name,
			Count:      res.Count,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			item.Error = redact.Error(res.Err)
		}
		resp.Results = append(resp.Results, item)
	}

	log.Info("sweep triggered",
		slog.Bool("cron", shared.IsCronCaller(r.Context())),
		slog.Int("notifications", resp.Total),
		slog.Bool("partial", resp.Partial))

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
