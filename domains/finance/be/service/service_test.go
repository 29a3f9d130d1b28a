package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	modulesservice "github.com/steepleworks/chorus/domains/modules/be/service"
	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/resource"
)

type mockStore struct {
	getFn func(ctx context.Context, collection, id string, expand []string) (resource.Record, error)
}

func (m *mockStore) List(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error) {
	panic("not used")
}

func (m *mockStore) Get(ctx context.Context, collection, id string, expand []string) (resource.Record, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, collection, id, expand)
}

func (m *mockStore) Create(ctx context.Context, collection string, payload map[string]any) (resource.Record, error) {
	panic("not used")
}

func (m *mockStore) Update(ctx context.Context, collection, id string, payload map[string]any) (resource.Record, error) {
	panic("not used")
}

func (m *mockStore) Delete(ctx context.Context, collection, id string) error {
	panic("not used")
}

func TestBeforeSaveDerivesDirectionFromCategoryKind(t *testing.T) {
	t.Parallel()

	store := &mockStore{getFn: func(ctx context.Context, collection, id string, expand []string) (resource.Record, error) {
		require.Equal(t, "finance_categories", collection)
		require.Equal(t, "c1", id)
		return resource.Record{"id": "c1", "name": "Utilities", "kind": "expense"}, nil
	}}

	payload := map[string]any{"category": "c1", "amount": 42.0}
	err := NewDirectionHook().BeforeSave(context.Background(), &moduleconf.Config{Key: "finance_transactions"}, payload, store)
	require.NoError(t, err)
	require.Equal(t, "expense", payload["direction"])
}

func TestBeforeSaveSkipsMissingCategory(t *testing.T) {
	t.Parallel()

	payload := map[string]any{"amount": 42.0}
	err := NewDirectionHook().BeforeSave(context.Background(), &moduleconf.Config{}, payload, &mockStore{})
	require.NoError(t, err)
	require.NotContains(t, payload, "direction")
}

func TestBeforeSaveRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	store := &mockStore{getFn: func(ctx context.Context, collection, id string, expand []string) (resource.Record, error) {
		return resource.Record{"id": "c1", "kind": "sideways"}, nil
	}}

	payload := map[string]any{"category": "c1"}
	err := NewDirectionHook().BeforeSave(context.Background(), &moduleconf.Config{}, payload, store)

	var validationErr *modulesservice.ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestBeforeSavePropagatesLookupFailure(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store down")
	store := &mockStore{getFn: func(ctx context.Context, collection, id string, expand []string) (resource.Record, error) {
		return nil, storeErr
	}}

	err := NewDirectionHook().BeforeSave(context.Background(), &moduleconf.Config{}, map[string]any{"category": "c1"}, store)
	require.ErrorIs(t, err, storeErr)
}
