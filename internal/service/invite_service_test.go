package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/groupwork-api/internal/domain"
	"github.com/phrazzld/groupwork-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteService_Invite(t *testing.T) {
	ctx := context.Background()
	leader, invitee, stranger := uuid.New(), uuid.New(), uuid.New()
	f := newFixture(t)
	project := f.project(t, leader)

	invite, err := f.invites.Invite(ctx, project.ID, invitee, leader)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusPending, invite.Status)
	assert.Equal(t, leader, *invite.InvitedByID)

	received := f.inbox(t, invitee, domain.NotificationInviteReceived)
	require.Len(t, received, 1)
	assert.Equal(t, project.ID, *received[0].ProjectID)

	tests := []struct {
		name      string
		projectID uuid.UUID
		invitee   uuid.UUID
		actor     uuid.UUID
		wantErr   error
	}{
		{name: "not_leader", projectID: project.ID, invitee: uuid.New(), actor: stranger, wantErr: service.ErrForbidden},
		{name: "already_invited", projectID: project.ID, invitee: invitee, actor: leader, wantErr: service.ErrConflict},
		{name: "leader_is_member", projectID: project.ID, invitee: leader, actor: leader, wantErr: service.ErrConflict},
		{name: "unknown_project", projectID: uuid.New(), invitee: uuid.New(), actor: leader, wantErr: service.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invites.Invite(ctx, tt.projectID, tt.invitee, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInviteService_Respond(t *testing.T) {
	ctx := context.Background()
	leader, invitee := uuid.New(), uuid.New()

	t.Run("accept_then_decline", func(t *testing.T) {
		f := newFixture(t)
		project := f.project(t, leader)
		invite, err := f.invites.Invite(ctx, project.ID, invitee, leader)
		require.NoError(t, err)

		accepted, err := f.invites.Respond(ctx, invite.ID, invitee, true)
		require.NoError(t, err)
		assert.Equal(t, domain.InviteStatusAccepted, accepted.Status)
		assert.NotNil(t, accepted.RespondedAt)
		assert.NotNil(t, accepted.JoinedAt)

		_, err = f.invites.Respond(ctx, invite.ID, invitee, false)
		assert.ErrorIs(t, err, service.ErrAlreadyResponded)

		stored, err := f.db.Stores().Invites.GetByID(ctx, invite.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InviteStatusAccepted, stored.Status)
	})

	t.Run("decline", func(t *testing.T) {
		f := newFixture(t)
		project := f.project(t, leader)
		invite, err := f.invites.Invite(ctx, project.ID, invitee, leader)
		require.NoError(t, err)

		declined, err := f.invites.Respond(ctx, invite.ID, invitee, false)
		require.NoError(t, err)
		assert.Equal(t, domain.InviteStatusDeclined, declined.Status)
		assert.Nil(t, declined.JoinedAt)

		assert.Len(t, f.inbox(t, leader, domain.NotificationInviteDeclined), 1)
		assert.Empty(t, f.inbox(t, leader, domain.NotificationMemberJoined))
	})

	t.Run("not_respondable", func(t *testing.T) {
		f := newFixture(t)
		project := f.project(t, leader)
		invite, err := f.invites.Invite(ctx, project.ID, invitee, leader)
		require.NoError(t, err)

		_, err = f.invites.Respond(ctx, uuid.New(), invitee, true)
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = f.invites.Respond(ctx, invite.ID, uuid.New(), true)
		assert.ErrorIs(t, err, service.ErrNotFound, "another user's invite looks missing")

		pending, err := f.invites.ListPending(ctx, invitee)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("notifies_inviter_and_members", func(t *testing.T) {
		f := newFixture(t)
		project := f.project(t, leader)
		early := uuid.New()

		first, err := f.invites.Invite(ctx, project.ID, early, leader)
		require.NoError(t, err)
		_, err = f.invites.Respond(ctx, first.ID, early, true)
		require.NoError(t, err)

		second, err := f.invites.Invite(ctx, project.ID, invitee, leader)
		require.NoError(t, err)
		_, err = f.invites.Respond(ctx, second.ID, invitee, true)
		require.NoError(t, err)

		assert.Len(t, f.inbox(t, leader, domain.NotificationInviteAccepted), 2)
		assert.Empty(t, f.inbox(t, leader, domain.NotificationMemberJoined), "inviter already heard")
		assert.Len(t, f.inbox(t, early, domain.NotificationMemberJoined), 1)
		assert.Empty(t, f.inbox(t, invitee, domain.NotificationMemberJoined))

		pending, err := f.invites.ListPending(ctx, invitee)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}
