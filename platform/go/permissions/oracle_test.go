package permissions

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

func TestCanFollowsDefaultsWithoutOverrides(t *testing.T) {
	t.Parallel()

	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		require.Equal(t, "permission_overrides", collection)
		require.Equal(t, "church-1", opts.TenantID)
		require.Equal(t, "role='viewer'", opts.Filter)
		return nil, nil
	}}

	oracle, err := Load(context.Background(), store, "church-1", "viewer")
	require.NoError(t, err)

	require.True(t, oracle.Can(ActionRead, "members"))
	require.False(t, oracle.Can(ActionCreate, "members"))
	require.False(t, oracle.Can(ActionDelete, "events"))
}

func TestCanFailsClosedForUnknownPairs(t *testing.T) {
	t.Parallel()

	oracle := Static("viewer")
	require.False(t, oracle.Can(ActionRead, "finance_transactions"))
	require.False(t, oracle.Can(ActionRead, "nonexistent_module"))

	unknownRole := Static("renegade")
	require.False(t, unknownRole.Can(ActionRead, "members"))

	anonymous := Static("")
	require.False(t, anonymous.Can(ActionRead, "members"))
}

func TestAdminWildcardCoversEveryModule(t *testing.T) {
	t.Parallel()

	oracle := Static("admin")
	for _, moduleKey := range []string{"members", "finance_transactions", "permissions", "anything"} {
		require.True(t, oracle.Can(ActionCreate, moduleKey), moduleKey)
		require.True(t, oracle.Can(ActionDelete, moduleKey), moduleKey)
	}
}

func TestOverrideReplacesDefault(t *testing.T) {
	t.Parallel()

	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		return []resource.Record{
			{
				"module":     "members",
				"role":       "viewer",
				"can_create": true,
				"can_read":   true,
			},
			{
				"module":   "events",
				"role":     "viewer",
				"can_read": false,
			},
		}, nil
	}}

	oracle, err := Load(context.Background(), store, "church-1", "viewer")
	require.NoError(t, err)

	// Upgraded by override.
	require.True(t, oracle.Can(ActionCreate, "members"))
	// Revoked by override: the override replaces the default wholesale.
	require.False(t, oracle.Can(ActionRead, "events"))
	// Untouched modules keep their defaults.
	require.True(t, oracle.Can(ActionRead, "groups"))
}

func TestLoadPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store down")
	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		return nil, storeErr
	}}

	oracle, err := Load(context.Background(), store, "church-1", "viewer")
	require.ErrorIs(t, err, storeErr)
	require.Nil(t, oracle)
}

func TestTenantSwitchYieldsIndependentOracles(t *testing.T) {
	t.Parallel()

	store := &mockStore{listFn: func(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
		if opts.TenantID == "church-a" {
			return []resource.Record{{"module": "finance_transactions", "can_read": true}}, nil
		}
		return nil, nil
	}}

	first, err := Load(context.Background(), store, "church-a", "viewer")
	require.NoError(t, err)
	require.True(t, first.Can(ActionRead, "finance_transactions"))

	second, err := Load(context.Background(), store, "church-b", "viewer")
	require.NoError(t, err)
	require.False(t, second.Can(ActionRead, "finance_transactions"))
}
