package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/store"
)

type notificationStore struct{ c conn }

var _ store.NotificationStore = (*notificationStore)(nil)

func (s *notificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	return s.c.do(func(st *state) error {
		if _, ok := st.notifications[n.ID]; ok {
			return store.NewStoreError("notification", "create", "id already used", store.ErrDuplicate)
		}
		st.notifications[n.ID] = *n
		return nil
	})
}

func (s *notificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var out *domain.Notification
	err := s.c.do(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return store.ErrNotificationNotFound
		}
		out = &n
		return nil
	})
	return out, err
}

func (s *notificationStore) ListByRecipient(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]*domain.Notification, error) {
	out := make([]*domain.Notification, 0)
	err := s.c.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.RecipientID != userID || (unreadOnly && n.IsRead) {
				continue
			}
			n := n
			out = append(out, &n)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (s *notificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	err := s.c.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.RecipientID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *notificationStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.c.do(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return store.ErrNotificationNotFound
		}
		if n.IsRead {
			return nil
		}
		at := at.UTC()
		n.IsRead, n.ReadAt = true, &at
		st.notifications[id] = n
		return nil
	})
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	changed := 0
	err := s.c.do(func(st *state) error {
		at := at.UTC()
		for id, n := range st.notifications {
			if n.RecipientID != userID || n.IsRead {
				continue
			}
			n.IsRead, n.ReadAt = true, &at
			st.notifications[id] = n
			changed++
		}
		return nil
	})
	return changed, err
}

func (s *notificationStore) DeleteAllForRecipient(ctx context.Context, userID uuid.UUID) (int, error) {
	removed := 0
	err := s.c.do(func(st *state) error {
		for id, n := range st.notifications {
			if n.RecipientID == userID {
				delete(st.notifications, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

type ledgerStore struct{ c conn }

var _ store.LedgerStore = (*ledgerStore)(nil)

func (s *ledgerStore) TryClaim(ctx context.Context, key domain.LedgerKey, at time.Time) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	claimed := false
	err := s.c.do(func(st *state) error {
		if _, ok := st.ledger[key]; ok {
			return nil
		}
		st.ledger[key] = struct{}{}
		claimed = true
		return nil
	})
	return claimed, err
}
