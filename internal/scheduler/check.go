package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
)

// Check names. They double as span names and API report keys.
const (
	CheckTasksDueToday               = "tasks_due_today"
	CheckTasksDueApproaching         = "tasks_due_approaching"
	CheckTasksOverdue                = "tasks_overdue"
	CheckProjectDeadlinesApproaching = "project_deadlines_approaching"
	CheckProjectDeadlinesMissed      = "project_deadlines_missed"
)

// Check is one independently runnable sweep.
type Check interface {
	// Name identifies the check in reports.
	Name() string

	// Run scans once and returns how many notifications it created. A
	// non-nil error may accompany a positive count when some candidates
	// failed and others succeeded.
	Run(ctx context.Context) (int, error)
}

// Notifier is the claim-then-notify primitive the checks depend on.
type Notifier interface {
	NotifyOnce(ctx context.Context, key domain.LedgerKey, recipients []uuid.UUID, draft domain.NotificationDraft) (int, error)
}

type checkFunc struct {
	name string
	run  func(ctx context.Context) (int, error)
}

// NewCheck adapts a function to Check.
func NewCheck(name string, run func(ctx context.Context) (int, error)) Check {
	return checkFunc{name: name, run: run}
}

func (c checkFunc) Name() string {
	return c.name
}

func (c checkFunc) Run(ctx context.Context) (int, error) {
	return c.run(ctx)
}
