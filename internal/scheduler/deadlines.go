package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// DefaultProjectApproachDays is how far ahead a project deadline is
// announced when DeadlineConfig leaves it unset.
const DefaultProjectApproachDays = 3

// DeadlineConfig fixes the calendar the checks work in.
type DeadlineConfig struct {
	// Location decides which calendar day "today" is. Nil means UTC.
	Location *time.Location

	// ProjectApproachDays is the look-ahead for project deadlines.
	ProjectApproachDays int

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// DeadlineChecks implements the five deadline sweeps. The checks only read
// tasks and projects; their sole writes are ledger claims and notifications
// made through the Notifier.
type DeadlineChecks struct {
	tx       store.TxManager
	notifier Notifier
	loc      *time.Location
	approach int
	now      func() time.Time
	logger   *slog.Logger
}

// NewDeadlineChecks creates the deadline checks.
// It returns an error if any of the required dependencies are nil.
func NewDeadlineChecks(
	tx store.TxManager,
	notifier Notifier,
	cfg DeadlineConfig,
	logger *slog.Logger,
) (*DeadlineChecks, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ProjectApproachDays <= 0 {
		cfg.ProjectApproachDays = DefaultProjectApproachDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeadlineChecks{
		tx:       tx,
		notifier: notifier,
		loc:      cfg.Location,
		approach: cfg.ProjectApproachDays,
		now:      cfg.Now,
		logger:   logger.With(slog.String("component", "deadline_checks")),
	}, nil
}

// All returns every check in a fixed order.
func (d *DeadlineChecks) All() []Check {
	return []Check{
		NewCheck(CheckTasksDueToday, d.TasksDueToday),
		NewCheck(CheckTasksDueApproaching, d.TasksDueApproaching),
		NewCheck(CheckTasksOverdue, d.TasksOverdue),
		NewCheck(CheckProjectDeadlinesApproaching, d.ProjectDeadlinesApproaching),
		NewCheck(CheckProjectDeadlinesMissed, d.ProjectDeadlinesMissed),
	}
}

func (d *DeadlineChecks) today() domain.Day {
	return domain.DayOf(d.now(), d.loc)
}

// TasksDueToday notifies assignees of open tasks due today.
func (d *DeadlineChecks) TasksDueToday(ctx context.Context) (int, error) {
	today := d.today()
	tasks, err := d.tx.Stores().Tasks.ListOpenDueBetween(ctx, today.Start(d.loc), today.AddDays(1).Start(d.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks due today: %w", err)
	}

	return d.sweep(ctx, CheckTasksDueToday, len(tasks), func(i int) (int, error) {
		task := tasks[i]
		if task.AssigneeID == nil {
			return 0, nil
		}
		return d.notifyTask(ctx, task, domain.ConditionDueToday, today, []uuid.UUID{*task.AssigneeID},
			domain.NotificationDraft{
				Type:    domain.NotificationTaskDueToday,
				Title:   "Task due today",
				Message: fmt.Sprintf("%q is due today", task.Title),
			})
	})
}

// TasksDueApproaching notifies assignees of open tasks due tomorrow.
func (d *DeadlineChecks) TasksDueApproaching(ctx context.Context) (int, error) {
	today := d.today()
	tomorrow := today.AddDays(1)
	tasks, err := d.tx.Stores().Tasks.ListOpenDueBetween(ctx, tomorrow.Start(d.loc), tomorrow.AddDays(1).Start(d.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks due tomorrow: %w", err)
	}

	return d.sweep(ctx, CheckTasksDueApproaching, len(tasks), func(i int) (int, error) {
		task := tasks[i]
		if task.AssigneeID == nil {
			return 0, nil
		}
		return d.notifyTask(ctx, task, domain.ConditionDueSoon, today, []uuid.UUID{*task.AssigneeID},
			domain.NotificationDraft{
				Type:    domain.NotificationTaskDueSoon,
				Title:   "Task due tomorrow",
				Message: fmt.Sprintf("%q is due tomorrow", task.Title),
			})
	})
}

// TasksOverdue notifies the assignee and the project leader of every open
// task whose due date has passed. The ledger key is scoped to today, so an
// overdue task is announced once per day until it is done or archived.
func (d *DeadlineChecks) TasksOverdue(ctx context.Context) (int, error) {
	today := d.today()
	stores := d.tx.Stores()
	tasks, err := stores.Tasks.ListOpenDueBefore(ctx, today.Start(d.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	leaders := make(map[uuid.UUID]uuid.UUID)
	return d.sweep(ctx, CheckTasksOverdue, len(tasks), func(i int) (int, error) {
		task := tasks[i]
		leader, ok := leaders[task.ProjectID]
		if !ok {
			project, err := stores.Projects.GetByID(ctx, task.ProjectID)
			if err != nil {
				return 0, err
			}
			leader = project.TeamLeaderID
			leaders[task.ProjectID] = leader
		}

		recipients := []uuid.UUID{leader}
		if task.AssigneeID != nil {
			recipients = []uuid.UUID{*task.AssigneeID, leader}
		}
		days := daysBetween(domain.DayOf(*task.DueDate, d.loc), today, d.loc)
		return d.notifyTask(ctx, task, domain.ConditionOverdue, today, recipients,
			domain.NotificationDraft{
				Type:     domain.NotificationTaskOverdue,
				Title:    "Task overdue",
				Message:  fmt.Sprintf("%q is %d day(s) overdue", task.Title, days),
				Metadata: map[string]any{"days_overdue": days},
			})
	})
}

// ProjectDeadlinesApproaching notifies the leader and accepted members of
// active projects whose deadline is exactly ProjectApproachDays away.
func (d *DeadlineChecks) ProjectDeadlinesApproaching(ctx context.Context) (int, error) {
	today := d.today()
	target := today.AddDays(d.approach)
	stores := d.tx.Stores()
	projects, err := stores.Projects.ListActiveDeadlineBetween(ctx, target.Start(d.loc), target.AddDays(1).Start(d.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to list projects with approaching deadlines: %w", err)
	}

	return d.sweep(ctx, CheckProjectDeadlinesApproaching, len(projects), func(i int) (int, error) {
		project := projects[i]
		members, err := stores.Invites.ListAcceptedMemberIDs(ctx, project.ID)
		if err != nil {
			return 0, err
		}
		return d.notifyProject(ctx, project, domain.ConditionDeadlineApproaching, today,
			append([]uuid.UUID{project.TeamLeaderID}, members...),
			domain.NotificationDraft{
				Type:     domain.NotificationProjectDeadlineApproaching,
				Title:    "Project deadline approaching",
				Message:  fmt.Sprintf("%q is due in %d days", project.Title, d.approach),
				Metadata: map[string]any{"days_remaining": d.approach},
			})
	})
}

// ProjectDeadlinesMissed notifies the leader of active projects whose
// deadline day has passed. The ledger key uses the deadline day, so each
// project is announced once.
func (d *DeadlineChecks) ProjectDeadlinesMissed(ctx context.Context) (int, error) {
	today := d.today()
	projects, err := d.tx.Stores().Projects.ListActiveDeadlineBefore(ctx, today.Start(d.loc))
	if err != nil {
		return 0, fmt.Errorf("failed to list projects past their deadline: %w", err)
	}

	return d.sweep(ctx, CheckProjectDeadlinesMissed, len(projects), func(i int) (int, error) {
		project := projects[i]
		deadline := domain.DayOf(*project.DeadlineDate, d.loc)
		return d.notifyProject(ctx, project, domain.ConditionDeadlineMissed, deadline,
			[]uuid.UUID{project.TeamLeaderID},
			domain.NotificationDraft{
				Type:     domain.NotificationProjectDeadlineMissed,
				Title:    "Project deadline missed",
				Message:  fmt.Sprintf("The deadline for %q passed on %s", project.Title, deadline),
				Metadata: map[string]any{"deadline": deadline.String()},
			})
	})
}

// sweep runs notify for every candidate. A failing candidate is logged and
// skipped; the failures are joined into the returned error.
func (d *DeadlineChecks) sweep(ctx context.Context, name string, n int, notify func(i int) (int, error)) (int, error) {
	log := logger.FromContextOrDefault(ctx, d.logger).With(slog.String("check", name))

	var (
		created int
		errs    []error
	)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		count, err := notify(i)
		created += count
		if err != nil {
			log.Error("candidate failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	log.Debug("check finished",
		slog.Int("candidates", n),
		slog.Int("created", created),
		slog.Int("failed", len(errs)))
	return created, errors.Join(errs...)
}

func (d *DeadlineChecks) notifyTask(
	ctx context.Context,
	task *domain.Task,
	condition domain.Condition,
	day domain.Day,
	recipients []uuid.UUID,
	draft domain.NotificationDraft,
) (int, error) {
	key, err := domain.NewLedgerKey(domain.EntityTask, task.ID, condition, day)
	if err != nil {
		return 0, err
	}
	draft.TaskID = &task.ID
	draft.ProjectID = &task.ProjectID
	return d.notifier.NotifyOnce(ctx, key, recipients, draft)
}

func (d *DeadlineChecks) notifyProject(
	ctx context.Context,
	project *domain.Project,
	condition domain.Condition,
	day domain.Day,
	recipients []uuid.UUID,
	draft domain.NotificationDraft,
) (int, error) {
	key, err := domain.NewLedgerKey(domain.EntityProject, project.ID, condition, day)
	if err != nil {
		return 0, err
	}
	draft.ProjectID = &project.ID
	return d.notifier.NotifyOnce(ctx, key, recipients, draft)
}

// daysBetween counts calendar days from a to b in loc.
func daysBetween(a, b domain.Day, loc *time.Location) int {
	return int(math.Round(b.Start(loc).Sub(a.Start(loc)).Hours() / 24))
}
