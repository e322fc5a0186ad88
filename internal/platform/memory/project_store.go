package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/store"
)

type projectStore struct{ c conn }

var _ store.ProjectStore = (*projectStore)(nil)

func (s *projectStore) Create(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	return s.c.do(func(st *state) error {
		if _, ok := st.projects[project.ID]; ok {
			return store.NewStoreError("project", "create", "id already used", store.ErrDuplicate)
		}
		p := *project
		p.ProfessorID = nil
		st.projects[p.ID] = p
		return nil
	})
}

func (s *projectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var out *domain.Project
	err := s.c.do(func(st *state) error {
		p, ok := st.projects[id]
		if !ok {
			return store.ErrProjectNotFound
		}
		out = st.withProfessor(p)
		return nil
	})
	return out, err
}

func (s *projectStore) ListActiveDeadlineBetween(ctx context.Context, from, to time.Time) ([]*domain.Project, error) {
	return s.listActive(func(deadline time.Time) bool {
		return !deadline.Before(from) && deadline.Before(to)
	})
}

func (s *projectStore) ListActiveDeadlineBefore(ctx context.Context, before time.Time) ([]*domain.Project, error) {
	return s.listActive(func(deadline time.Time) bool {
		return deadline.Before(before)
	})
}

func (s *projectStore) listActive(match func(deadline time.Time) bool) ([]*domain.Project, error) {
	out := make([]*domain.Project, 0)
	err := s.c.do(func(st *state) error {
		for _, p := range st.projects {
			if p.Status != domain.ProjectStatusActive || p.DeadlineDate == nil || !match(*p.DeadlineDate) {
				continue
			}
			out = append(out, st.withProfessor(p))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DeadlineDate.Before(*out[j].DeadlineDate) })
	return out, err
}

func (st *state) withProfessor(p domain.Project) *domain.Project {
	p.ProfessorID = nil
	if p.CourseID != nil {
		if prof, ok := st.professors[*p.CourseID]; ok {
			p.ProfessorID = &prof
		}
	}
	return &p
}

type inviteStore struct{ c conn }

var _ store.InviteStore = (*inviteStore)(nil)

func (s *inviteStore) Create(ctx context.Context, invite *domain.Invite) error {
	if err := invite.Validate(); err != nil {
		return err
	}
	return s.c.do(func(st *state) error {
		if _, ok := st.projects[invite.ProjectID]; !ok {
			return store.NewStoreError("invite", "create", "project does not exist", store.ErrInvalidEntity)
		}
		for _, other := range st.invites {
			if other.ProjectID == invite.ProjectID && other.InviteeID == invite.InviteeID {
				return store.ErrMembershipExists
			}
		}
		st.invites[invite.ID] = *invite
		return nil
	})
}

func (s *inviteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	var out *domain.Invite
	err := s.c.do(func(st *state) error {
		inv, ok := st.invites[id]
		if !ok {
			return store.ErrInviteNotFound
		}
		out = &inv
		return nil
	})
	return out, err
}

func (s *inviteStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return s.GetByID(ctx, id)
}

func (s *inviteStore) UpdateResponse(ctx context.Context, invite *domain.Invite) error {
	return s.c.do(func(st *state) error {
		cur, ok := st.invites[invite.ID]
		if !ok {
			return store.ErrInviteNotFound
		}
		if cur.Status != domain.InviteStatusPending {
			return store.NewStoreError("invite", "respond", "invite is no longer pending", store.ErrUpdateFailed)
		}
		cur.Status = invite.Status
		cur.RespondedAt = invite.RespondedAt
		cur.JoinedAt = invite.JoinedAt
		st.invites[invite.ID] = cur
		return nil
	})
}

func (s *inviteStore) ListPendingByInvitee(ctx context.Context, userID uuid.UUID) ([]*domain.Invite, error) {
	out := make([]*domain.Invite, 0)
	err := s.c.do(func(st *state) error {
		for _, inv := range st.invites {
			if inv.InviteeID == userID && inv.Status == domain.InviteStatusPending {
				inv := inv
				out = append(out, &inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (s *inviteStore) ListAcceptedMemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var members []*domain.Invite
	err := s.c.do(func(st *state) error {
		for _, inv := range st.invites {
			if inv.ProjectID == projectID && inv.Status == domain.InviteStatusAccepted {
				inv := inv
				members = append(members, &inv)
			}
		}
		return nil
	})
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		out = append(out, m.InviteeID)
	}
	return out, err
}
