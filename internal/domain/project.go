package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project statuses.
const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Validation errors for Project.
var (
	ErrEmptyProjectTitle    = fmt.Errorf("%w: project title cannot be empty", ErrValidation)
	ErrEmptyProjectLeader   = fmt.Errorf("%w: project team leader cannot be empty", ErrValidation)
	ErrInvalidProjectStatus = fmt.Errorf("%w: invalid project status", ErrValidation)
)

// Project groups tasks and members. The engine reads projects for deadline
// sweeps and authorization; ProfessorID is resolved through the owning course.
type Project struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Description  *string       `json:"description,omitempty"`
	TeamLeaderID uuid.UUID     `json:"team_leader_id"`
	Status       ProjectStatus `json:"status"`
	DeadlineDate *time.Time    `json:"deadline_date,omitempty"`
	CourseID     *uuid.UUID    `json:"course_id,omitempty"`
	ProfessorID  *uuid.UUID    `json:"professor_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewProject builds an active project led by leaderID.
func NewProject(
	title string,
	description *string,
	leaderID uuid.UUID,
	deadline *time.Time,
	courseID *uuid.UUID,
	now time.Time,
) (*Project, error) {
	now = now.UTC()
	p := &Project{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(title),
		Description:  description,
		TeamLeaderID: leaderID,
		Status:       ProjectStatusActive,
		DeadlineDate: utcPtr(deadline),
		CourseID:     courseID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the project's required fields.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return ErrInvalidID
	}
	if p.Title == "" {
		return ErrEmptyProjectTitle
	}
	if p.TeamLeaderID == uuid.Nil {
		return ErrEmptyProjectLeader
	}
	switch p.Status {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return nil
	default:
		return ErrInvalidProjectStatus
	}
}

// IsLeader reports whether userID leads the project.
func (p *Project) IsLeader(userID uuid.UUID) bool {
	return p.TeamLeaderID == userID
}
