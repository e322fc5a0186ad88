package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/store"
)

// projectSelect resolves the professor through the owning course.
const projectSelect = `
	SELECT p.id, p.title, p.description, p.team_leader_id, p.status, p.deadline_date,
		p.course_id, c.professor_id, p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN courses c ON c.id = p.course_id
`

// PostgresProjectStore implements the store.ProjectStore interface.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProjectStore creates a new PostgresProjectStore.
func NewPostgresProjectStore(db store.DBTX, logger *slog.Logger) *PostgresProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

// Ensure PostgresProjectStore implements store.ProjectStore interface
var _ store.ProjectStore = (*PostgresProjectStore)(nil)

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p         domain.Project
		desc      sql.NullString
		status    string
		deadline  sql.NullTime
		course    uuid.NullUUID
		professor uuid.NullUUID
	)
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&desc,
		&p.TeamLeaderID,
		&status,
		&deadline,
		&course,
		&professor,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.Description = nullStringPtr(desc)
	p.DeadlineDate = nullTimePtr(deadline)
	p.CourseID = nullUUIDPtr(course)
	p.ProfessorID = nullUUIDPtr(professor)
	return &p, nil
}

// Create implements store.ProjectStore.Create.
func (s *PostgresProjectStore) Create(ctx context.Context, project *domain.Project) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := project.Validate(); err != nil {
		log.Warn("project validation failed during create",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return err
	}

	query := `
		INSERT INTO projects (id, title, description, team_leader_id, status, deadline_date,
			course_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.TeamLeaderID,
		project.Status,
		project.DeadlineDate,
		project.CourseID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create project",
			slog.String("error", err.Error()),
			slog.String("project_id", project.ID.String()))
		return mapWriteError(err, "project", "create")
	}

	log.Info("project created", slog.String("project_id", project.ID.String()))
	return nil
}

// GetByID implements store.ProjectStore.GetByID.
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	p, err := scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("project not found", slog.String("project_id", id.String()))
			return nil, store.ErrProjectNotFound
		}
		log.Error("failed to get project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return nil, MapError(err)
	}
	return p, nil
}

// ListActiveDeadlineBetween implements store.ProjectStore.ListActiveDeadlineBetween.
func (s *PostgresProjectStore) ListActiveDeadlineBetween(ctx context.Context, from, to time.Time) ([]*domain.Project, error) {
	query := projectSelect + `
		WHERE p.status = 'active' AND p.deadline_date >= $1 AND p.deadline_date < $2
		ORDER BY p.deadline_date
	`
	return s.list(ctx, query, from.UTC(), to.UTC())
}

// ListActiveDeadlineBefore implements store.ProjectStore.ListActiveDeadlineBefore.
func (s *PostgresProjectStore) ListActiveDeadlineBefore(ctx context.Context, before time.Time) ([]*domain.Project, error) {
	query := projectSelect + `
		WHERE p.status = 'active' AND p.deadline_date < $1
		ORDER BY p.deadline_date
	`
	return s.list(ctx, query, before.UTC())
}

func (s *PostgresProjectStore) list(ctx context.Context, query string, args ...any) ([]*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			log.Error("failed to scan project row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return projects, nil
}
