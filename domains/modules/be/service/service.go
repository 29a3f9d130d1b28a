package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/permissions"
	"github.com/steepleworks/chorus/platform/go/render"
	"github.com/steepleworks/chorus/platform/go/resource"
)

// Domain sentinel errors.
var (
	// ErrNoAccess means the role lacks the permission for the operation.
	// Withheld permissions never reach the store.
	ErrNoAccess = errors.New("no access to this module")
	// ErrNotConfirmed means a delete was attempted without confirmation.
	ErrNotConfirmed = errors.New("delete requires confirmation")
)

// ValidationError carries an inline message for the modal form.
type ValidationError struct {
	Message string
}

func (v *ValidationError) Error() string {
	return v.Message
}

// Store is the slice of the resource client the screen service needs.
type Store interface {
	List(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error)
	Get(ctx context.Context, collection, id string, expand []string) (resource.Record, error)
	Create(ctx context.Context, collection string, payload map[string]any) (resource.Record, error)
	Update(ctx context.Context, collection, id string, payload map[string]any) (resource.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

// SaveHook lets a specialized module adjust the payload before persistence
// (e.g. finance deriving the transaction direction from its category).
type SaveHook interface {
	BeforeSave(ctx context.Context, cfg *moduleconf.Config, payload map[string]any, store Store) error
}

// Service drives one module screen: configuration in, permission-gated CRUD
// out. A Service is built per request from the session's active tenant, so
// a tenant switch is fully reflected on the next construction.
type Service struct {
	cfg      *moduleconf.Config
	store    Store
	perms    *permissions.Oracle
	tenantID string
	hook     SaveHook

	screen *render.ScreenContext
	table  *render.Table
	form   *render.Form
}

// New constructs a screen Service.
func New(cfg *moduleconf.Config, store Store, perms *permissions.Oracle, tenantID string, hook SaveHook) *Service {
	if cfg == nil {
		panic("module configuration is required")
	}
	if store == nil {
		panic("store is required")
	}
	if perms == nil {
		panic("permission oracle is required")
	}

	screen := render.NewScreenContext(cfg, store, perms, tenantID)
	return &Service{
		cfg:      cfg,
		store:    store,
		perms:    perms,
		tenantID: tenantID,
		hook:     hook,
		screen:   screen,
		table:    render.NewTable(cfg, perms),
		form:     render.NewForm(screen),
	}
}

// Config exposes the module configuration for the handler's page chrome.
func (s *Service) Config() *moduleconf.Config {
	return s.cfg
}

// Rows fetches the full list for the active tenant and projects it through
// the table renderer with the search query applied. A store failure returns
// the distinct load-failed view together with the error.
func (s *Service) Rows(ctx context.Context, query string) (render.TableView, error) {
	if !s.perms.Can(permissions.ActionRead, s.cfg.Key) {
		return render.TableView{}, ErrNoAccess
	}

	records, err := s.store.List(ctx, s.cfg.Resource, resource.ListOptions{
		TenantID:    s.tenantID,
		TenantField: s.cfg.TenantField(),
		Global:      s.cfg.Global,
		Sort:        s.cfg.Table.DefaultSort,
		Expand:      s.cfg.RelationFieldsToExpand(),
	})
	if err != nil {
		return s.table.Failed(), fmt.Errorf("list %s: %w", s.cfg.Resource, err)
	}

	return s.table.View(records, query), nil
}

// NewForm renders the empty modal for record creation.
func (s *Service) NewForm(ctx context.Context) (render.FormView, error) {
	if !s.perms.Can(permissions.ActionCreate, s.cfg.Key) {
		return render.FormView{}, ErrNoAccess
	}
	return s.form.View(ctx, resource.Record{})
}

// EditForm renders the modal populated from an existing record.
func (s *Service) EditForm(ctx context.Context, id string) (render.FormView, error) {
	if !s.perms.Can(permissions.ActionUpdate, s.cfg.Key) {
		return render.FormView{}, ErrNoAccess
	}

	record, err := s.store.Get(ctx, s.cfg.Resource, id, nil)
	if err != nil {
		return render.FormView{}, fmt.Errorf("load %s/%s: %w", s.cfg.Resource, id, err)
	}

	return s.form.View(ctx, record)
}

// FormWithError rebuilds the modal from submitted values with an inline
// failure message, preserving the user's input.
func (s *Service) FormWithError(ctx context.Context, values url.Values, existingID, message string) (render.FormView, error) {
	return s.form.ViewFromValues(ctx, values, existingID, message)
}

// Save persists the submitted form. The tenant field is always re-stamped
// from the service's held tenant id, never from client-submitted data, so a
// tampered payload cannot move a record across tenants. Store validation
// failures come back as *ValidationError for inline display.
func (s *Service) Save(ctx context.Context, values url.Values, existingID string) (resource.Record, error) {
	action := permissions.ActionCreate
	if existingID != "" {
		action = permissions.ActionUpdate
	}
	if !s.perms.Can(action, s.cfg.Key) {
		return nil, ErrNoAccess
	}

	payload := s.form.Decode(values)
	if !s.cfg.Global {
		payload[s.cfg.TenantField()] = s.tenantID
	}

	if s.hook != nil {
		if err := s.hook.BeforeSave(ctx, s.cfg, payload, s.store); err != nil {
			return nil, err
		}
	}

	var record resource.Record
	var err error
	if existingID == "" {
		record, err = s.store.Create(ctx, s.cfg.Resource, payload)
	} else {
		record, err = s.store.Update(ctx, s.cfg.Resource, existingID, payload)
	}
	if err != nil {
		var apiErr *resource.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return nil, &ValidationError{Message: apiErr.FirstFieldError()}
		}
		return nil, fmt.Errorf("save %s: %w", s.cfg.Resource, err)
	}

	return record, nil
}

// Delete removes a record once the interactive confirmation was affirmed.
// A declined confirmation leaves the store untouched.
func (s *Service) Delete(ctx context.Context, id string, confirmed bool) error {
	if !s.perms.Can(permissions.ActionDelete, s.cfg.Key) {
		return ErrNoAccess
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("record id is required")
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := s.store.Delete(ctx, s.cfg.Resource, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.cfg.Resource, id, err)
	}
	return nil
}

// RecordSummary fetches a short description of a record for the delete
// confirmation page, falling back to the id when nothing else renders.
// Gated on the delete permission like Delete itself: without it the store
// is never consulted.
func (s *Service) RecordSummary(ctx context.Context, id string) (string, error) {
	if !s.perms.Can(permissions.ActionDelete, s.cfg.Key) {
		return "", ErrNoAccess
	}

	record, err := s.store.Get(ctx, s.cfg.Resource, id, nil)
	if err != nil {
		return "", fmt.Errorf("load %s/%s: %w", s.cfg.Resource, id, err)
	}

	if len(s.cfg.Table.Columns) > 0 {
		if value := render.CellValue(record, s.cfg.Table.Columns[0]); value != "" {
			return value, nil
		}
	}
	return record.ID(), nil
}
