package permissions

import (
	"context"
	"fmt"

	"github.com/steepleworks/chorus/platform/go/resource"
)

// overridesCollection stores tenant-specific permission records, unique per
// (tenant, role, module).
const overridesCollection = "permission_overrides"

// Action names a CRUD capability on a module.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Capability is the resolved permission set for one role on one module.
type Capability struct {
	Create bool
	Read   bool
	Update bool
	Delete bool
}

// OverrideStore lists tenant-scoped permission override records.
type OverrideStore interface {
	List(ctx context.Context, collection string, opts resource.ListOptions) ([]resource.Record, error)
}

// Oracle answers "can <action> on <module>?" for one (tenant, role) context.
// It is built per request; a tenant switch builds a new oracle, so stale
// permissions can never leak across tenants.
type Oracle struct {
	role      string
	overrides map[string]Capability
}

// Load builds an Oracle by combining the built-in role defaults with the
// tenant's override records. An override replaces the default wholesale for
// its module.
func Load(ctx context.Context, store OverrideStore, tenantID, role string) (*Oracle, error) {
	if store == nil {
		panic("override store is required")
	}

	oracle := &Oracle{role: role, overrides: make(map[string]Capability)}
	if tenantID == "" || role == "" {
		return oracle, nil
	}

	records, err := store.List(ctx, overridesCollection, resource.ListOptions{
		TenantID:    tenantID,
		TenantField: "church",
		Filter:      fmt.Sprintf("role='%s'", role),
	})
	if err != nil {
		return nil, fmt.Errorf("load permission overrides: %w", err)
	}

	for _, record := range records {
		moduleKey, _ := record["module"].(string)
		if moduleKey == "" {
			continue
		}
		oracle.overrides[moduleKey] = Capability{
			Create: boolField(record, "can_create"),
			Read:   boolField(record, "can_read"),
			Update: boolField(record, "can_update"),
			Delete: boolField(record, "can_delete"),
		}
	}

	return oracle, nil
}

// Static builds an Oracle from the role defaults alone, with no tenant
// overrides. Used by tests and by screens rendered before a tenant exists.
func Static(role string) *Oracle {
	return &Oracle{role: role, overrides: make(map[string]Capability)}
}

// Role returns the role this oracle was built for; empty when anonymous.
func (o *Oracle) Role() string {
	return o.role
}

// Can reports whether the role may perform the action on the module.
// Missing (role, module) pairs resolve to false.
func (o *Oracle) Can(action Action, moduleKey string) bool {
	capability, ok := o.capability(moduleKey)
	if !ok {
		return false
	}

	switch action {
	case ActionCreate:
		return capability.Create
	case ActionRead:
		return capability.Read
	case ActionUpdate:
		return capability.Update
	case ActionDelete:
		return capability.Delete
	default:
		return false
	}
}

// Capability returns the effective capability set for a module.
func (o *Oracle) Capability(moduleKey string) Capability {
	capability, _ := o.capability(moduleKey)
	return capability
}

func (o *Oracle) capability(moduleKey string) (Capability, bool) {
	if capability, ok := o.overrides[moduleKey]; ok {
		return capability, true
	}
	return defaultCapability(o.role, moduleKey)
}

func boolField(record resource.Record, field string) bool {
	value, _ := record[field].(bool)
	return value
}
