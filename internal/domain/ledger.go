package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType names the kind of entity a ledger key refers to.
type EntityType string

// Ledger entity types.
const (
	EntityTask    EntityType = "task"
	EntityProject EntityType = "project"
)

// Condition is the notification condition recorded in the ledger.
type Condition string

// Ledger conditions.
const (
	ConditionDueToday            Condition = "due_today"
	ConditionDueSoon             Condition = "due_soon"
	ConditionOverdue             Condition = "overdue"
	ConditionDeadlineApproaching Condition = "deadline_approaching"
	ConditionDeadlineMissed      Condition = "deadline_missed"
	ConditionProjectCreated      Condition = "project_created"
)

// Day is a calendar date in YYYY-MM-DD form. It carries no time zone; the
// zone is fixed when a Day is derived from an instant.
type Day string

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(time.DateOnly))
}

// ParseDay validates s as a calendar day.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return Day(s), nil
}

// Start returns midnight at the beginning of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(time.DateOnly, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n calendar days after d.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(time.DateOnly, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(time.DateOnly))
}

// String implements fmt.Stringer.
func (d Day) String() string {
	return string(d)
}

// LedgerKey identifies one notification-worthy condition on one entity for
// one calendar day. At most one claim exists per key.
type LedgerKey struct {
	EntityType EntityType
	EntityID   uuid.UUID
	Condition  Condition
	Day        Day
}

// NewLedgerKey builds a validated key.
func NewLedgerKey(entityType EntityType, entityID uuid.UUID, condition Condition, day Day) (LedgerKey, error) {
	k := LedgerKey{EntityType: entityType, EntityID: entityID, Condition: condition, Day: day}
	return k, k.Validate()
}

// Validate checks that every component of the key is set.
func (k LedgerKey) Validate() error {
	if k.EntityType == "" || k.Condition == "" {
		return NewValidationError("ledger_key", "entity type and condition are required", nil)
	}
	if k.EntityID == uuid.Nil {
		return ErrInvalidID
	}
	if _, err := ParseDay(string(k.Day)); err != nil {
		return err
	}
	return nil
}

// String implements fmt.Stringer.
func (k LedgerKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.EntityType, k.EntityID, k.Condition, k.Day)
}
