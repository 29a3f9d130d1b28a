package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/steepleworks/chorus/platform/go/resource"
)

// membershipsCollection links users to churches with a per-church role.
const membershipsCollection = "church_users"

// ErrNotMember indicates the user has no membership in the church.
var ErrNotMember = errors.New("user is not a member of this church")

// Membership is one (user, church, role) association.
type Membership struct {
	ChurchID   string
	ChurchName string
	Role       string
}

// Store is the slice of the resource client the tenants service needs.
type Store interface {
	List(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error)
}

// Service resolves which churches a user belongs to and with what role.
// Churches are never created or destroyed by the console.
type Service struct {
	store Store
}

// New constructs the tenants Service.
func New(store Store) *Service {
	if store == nil {
		panic("store is required")
	}
	return &Service{store: store}
}

// Memberships lists the churches available to the user.
func (s *Service) Memberships(ctx context.Context, userID string) ([]Membership, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	records, err := s.store.List(ctx, membershipsCollection, resource.ListOptions{
		Global: true,
		Filter: fmt.Sprintf("user='%s'", userID),
		Expand: []string{"church"},
		Sort:   "created",
	})
	if err != nil {
		return nil, fmt.Errorf("list church memberships: %w", err)
	}

	memberships := make([]Membership, 0, len(records))
	for _, record := range records {
		membership := Membership{Role: stringField(record, "role")}

		churchID, _ := record["church"].(string)
		membership.ChurchID = churchID
		membership.ChurchName = churchID
		if expanded, ok := record.Expand("church"); ok {
			if church, ok := expanded.(map[string]any); ok {
				if name := stringField(church, "name"); name != "" {
					membership.ChurchName = name
				}
			}
		}

		if membership.ChurchID != "" {
			memberships = append(memberships, membership)
		}
	}

	return memberships, nil
}

// Membership resolves the user's membership in one church, for validating a
// tenant switch before the session is rewritten.
func (s *Service) Membership(ctx context.Context, userID, churchID string) (Membership, error) {
	memberships, err := s.Memberships(ctx, userID)
	if err != nil {
		return Membership{}, err
	}

	for _, membership := range memberships {
		if membership.ChurchID == churchID {
			return membership, nil
		}
	}

	return Membership{}, ErrNotMember
}

func stringField(record map[string]any, field string) string {
	value, _ := record[field].(string)
	return value
}
