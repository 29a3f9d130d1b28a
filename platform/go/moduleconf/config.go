package moduleconf

import (
	"encoding/json"
	"fmt"
)

// defaultTenantField is the conventional record field linking a record to
// its tenant when the configuration does not name one.
const defaultTenantField = "church"

// Config declaratively describes one resource-backed CRUD screen.
type Config struct {
	// Key is the module key the document was loaded under.
	Key string `json:"-"`
	// Label is the human-visible screen title.
	Label string `json:"label"`
	// Resource names the backing record collection.
	Resource string `json:"resource"`
	// Global marks the collection as shared across tenants; global
	// collections are never tenant-filtered.
	Global bool `json:"global,omitempty"`

	Datasource *Datasource `json:"datasource,omitempty"`
	Table      TableSpec   `json:"table"`
	Form       FormSpec    `json:"form"`
}

// Datasource carries collection-level wiring, currently just the tenant link.
type Datasource struct {
	Tenant *TenantLink `json:"tenant,omitempty"`
}

// TenantLink names the field that scopes records to a tenant.
type TenantLink struct {
	Field string `json:"field"`
}

// TableSpec describes the list rendering of the screen.
type TableSpec struct {
	Columns     []Column `json:"columns"`
	DefaultSort string   `json:"defaultSort,omitempty"`
}

// Column describes one table column.
type Column struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
	// Display names the field of the expanded relation object shown in
	// place of the raw id, for relation columns.
	Display string `json:"display,omitempty"`
}

// FormSpec describes the modal form of the screen.
type FormSpec struct {
	Fields []Field `json:"fields"`
}

// Field describes one form control.
type Field struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Options  []Option `json:"options,omitempty"`
	// Collection names the relation target for relation fields.
	Collection string `json:"collection,omitempty"`
	// LabelField selects the relation record field used as option label.
	LabelField string `json:"labelField,omitempty"`
	// FilterByTenant defaults to true; set false for global relation targets.
	FilterByTenant *bool `json:"filterByTenant,omitempty"`
}

// Option is one selectable value of a static select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts both the {value,label} object form and the plain
// string shorthand used by hand-written configuration documents.
func (o *Option) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		o.Value = plain
		o.Label = plain
		return nil
	}

	type alias Option
	var full alias
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("option must be a string or a {value,label} object: %w", err)
	}
	*o = Option(full)
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// TenantField returns the configured tenant link field, or the convention.
func (c *Config) TenantField() string {
	if c.Datasource != nil && c.Datasource.Tenant != nil && c.Datasource.Tenant.Field != "" {
		return c.Datasource.Tenant.Field
	}
	return defaultTenantField
}

// RelationFieldsToExpand lists the relation fields the table needs expanded
// for display.
func (c *Config) RelationFieldsToExpand() []string {
	var fields []string
	for _, column := range c.Table.Columns {
		if column.Display != "" {
			fields = append(fields, column.Field)
		}
	}
	return fields
}

// FormField returns the form field declaration by name.
func (c *Config) FormField(name string) (Field, bool) {
	for _, field := range c.Form.Fields {
		if field.Field == name {
			return field, true
		}
	}
	return Field{}, false
}

// TenantFiltered reports whether relation options for the field should be
// scoped to the active tenant.
func (f Field) TenantFiltered() bool {
	if f.FilterByTenant == nil {
		return true
	}
	return *f.FilterByTenant
}
