package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steepleworks/chorus/platform/go/resource"
)

type mockStore struct {
	listFn func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error)
}

func (m *mockStore) List(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, collection, opts)
}

func membershipRecords() []resource.Record {
	return []resource.Record{
		{
			"id": "cu1", "user": "u1", "church": "church-1", "role": "admin",
			"expand": map[string]any{"church": map[string]any{"id": "church-1", "name": "St. Mary"}},
		},
		{
			"id": "cu2", "user": "u1", "church": "church-2", "role": "viewer",
		},
	}
}

func TestMembershipsExpandsChurchNames(t *testing.T) {
	t.Parallel()

	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		require.Equal(t, "church_users", collection)
		require.True(t, opts.Global)
		require.Equal(t, "user='u1'", opts.Filter)
		require.Equal(t, []string{"church"}, opts.Expand)
		return membershipRecords(), nil
	}}

	memberships, err := New(store).Memberships(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	require.Equal(t, Membership{ChurchID: "church-1", ChurchName: "St. Mary", Role: "admin"}, memberships[0])
	// Without an expansion the id doubles as the display name.
	require.Equal(t, Membership{ChurchID: "church-2", ChurchName: "church-2", Role: "viewer"}, memberships[1])
}

func TestMembershipValidatesSwitchTarget(t *testing.T) {
	t.Parallel()

	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		return membershipRecords(), nil
	}}

	svc := New(store)

	membership, err := svc.Membership(context.Background(), "u1", "church-2")
	require.NoError(t, err)
	require.Equal(t, "viewer", membership.Role)

	_, err = svc.Membership(context.Background(), "u1", "church-9")
	require.ErrorIs(t, err, ErrNotMember)
}

func TestMembershipsPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store down")
	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		return nil, storeErr
	}}

	_, err := New(store).Memberships(context.Background(), "u1")
	require.ErrorIs(t, err, storeErr)
}
