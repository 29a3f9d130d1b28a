package render

import (
	"context"
	"fmt"

	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/permissions"
	"github.com/steepleworks/chorus/platform/go/resource"
)

// RecordSource is the slice of the resource client the renderers need.
type RecordSource interface {
	List(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error)
}

// Option is one selectable relation target, shown by its label.
type Option struct {
	ID    string
	Label string
}

// ScreenContext carries everything one screen build needs: the module
// configuration, the active tenant, the permission oracle and a relation
// option cache. A fresh context is constructed per screen render; caches
// are invalidated by construction, never by mutation of shared state.
type ScreenContext struct {
	Module   *moduleconf.Config
	TenantID string
	Perms    *permissions.Oracle

	source  RecordSource
	options map[string][]Option
}

// NewScreenContext builds a context for one screen render.
func NewScreenContext(cfg *moduleconf.Config, source RecordSource, perms *permissions.Oracle, tenantID string) *ScreenContext {
	if cfg == nil {
		panic("module configuration is required")
	}
	if source == nil {
		panic("record source is required")
	}
	if perms == nil {
		panic("permission oracle is required")
	}

	return &ScreenContext{
		Module:   cfg,
		TenantID: tenantID,
		Perms:    perms,
		source:   source,
		options:  make(map[string][]Option),
	}
}

// RelationOptions loads the candidate {id, label} pairs for a relation
// field, scoped to the active tenant unless the field opts out. Results are
// cached for the lifetime of this screen context.
func (sc *ScreenContext) RelationOptions(ctx context.Context, field moduleconf.Field) ([]Option, error) {
	if field.Collection == "" {
		return nil, fmt.Errorf("field %q has no relation collection", field.Field)
	}

	if cached, ok := sc.options[field.Field]; ok {
		return cached, nil
	}

	opts := resource.ListOptions{Sort: field.LabelField}
	if field.TenantFiltered() {
		opts.TenantID = sc.TenantID
		opts.TenantField = sc.Module.TenantField()
	} else {
		opts.Global = true
	}

	records, err := sc.source.List(ctx, field.Collection, opts)
	if err != nil {
		return nil, fmt.Errorf("load options for %q from %s: %w", field.Field, field.Collection, err)
	}

	labelField := field.LabelField
	if labelField == "" {
		labelField = "name"
	}

	options := make([]Option, 0, len(records))
	for _, record := range records {
		label := resource.Stringify(record[labelField])
		if label == "" {
			label = record.ID()
		}
		options = append(options, Option{ID: record.ID(), Label: label})
	}

	sc.options[field.Field] = options
	return options, nil
}
