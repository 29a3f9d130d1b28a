package render

import (
	"strings"

	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/permissions"
	"github.com/steepleworks/chorus/platform/go/resource"
)

// TableView is the fully computed view model handed to the screen template.
type TableView struct {
	Columns []string
	Rows    []RowView
	// Query echoes the active search filter back into the search input.
	Query string
	// Total is the unfiltered row count.
	Total int
	// CanCreate gates the "New" control.
	CanCreate bool
	// LoadFailed marks a fetch failure, rendered distinctly from zero rows.
	LoadFailed bool
}

// RowView is one table row with its permission-gated action cell.
type RowView struct {
	ID        string
	Cells     []string
	CanEdit   bool
	CanDelete bool
}

// Table projects record rows through the module's column configuration.
type Table struct {
	cfg   *moduleconf.Config
	perms *permissions.Oracle
}

// NewTable builds a Table for one screen.
func NewTable(cfg *moduleconf.Config, perms *permissions.Oracle) *Table {
	if cfg == nil {
		panic("module configuration is required")
	}
	if perms == nil {
		panic("permission oracle is required")
	}
	return &Table{cfg: cfg, perms: perms}
}

// View renders the row set, applying the case-insensitive search query
// across every configured column. Edit and Delete controls appear only when
// the corresponding permission holds.
func (t *Table) View(records []resource.Record, query string) TableView {
	view := TableView{
		Query:     query,
		Total:     len(records),
		CanCreate: t.perms.Can(permissions.ActionCreate, t.cfg.Key),
	}

	for _, column := range t.cfg.Table.Columns {
		view.Columns = append(view.Columns, column.Label)
	}

	canEdit := t.perms.Can(permissions.ActionUpdate, t.cfg.Key)
	canDelete := t.perms.Can(permissions.ActionDelete, t.cfg.Key)
	needle := strings.ToLower(strings.TrimSpace(query))

	for _, record := range records {
		cells := make([]string, 0, len(t.cfg.Table.Columns))
		for _, column := range t.cfg.Table.Columns {
			cells = append(cells, CellValue(record, column))
		}

		if needle != "" && !rowMatches(cells, needle) {
			continue
		}

		view.Rows = append(view.Rows, RowView{
			ID:        record.ID(),
			Cells:     cells,
			CanEdit:   canEdit,
			CanDelete: canDelete,
		})
	}

	return view
}

// Failed builds the view for a list fetch failure. Kept separate from the
// empty row set so the template can tell "load failed" from "no records".
func (t *Table) Failed() TableView {
	view := TableView{LoadFailed: true}
	for _, column := range t.cfg.Table.Columns {
		view.Columns = append(view.Columns, column.Label)
	}
	return view
}

// CellValue extracts the display string for one column of one record.
// Relation columns with a display field prefer the expanded object, then
// fall back to joined raw values, then to the raw id(s).
func CellValue(record resource.Record, column moduleconf.Column) string {
	if column.Display != "" {
		if expanded, ok := record.Expand(column.Field); ok {
			switch v := expanded.(type) {
			case map[string]any:
				if s := resource.Stringify(v[column.Display]); s != "" {
					return s
				}
			case []any:
				parts := make([]string, 0, len(v))
				for _, item := range v {
					if obj, ok := item.(map[string]any); ok {
						parts = append(parts, resource.Stringify(obj[column.Display]))
					}
				}
				if len(parts) > 0 {
					return strings.Join(parts, ", ")
				}
			}
		}
	}

	value, ok := record.Lookup(column.Field)
	if !ok {
		return ""
	}
	return resource.Stringify(value)
}

func rowMatches(cells []string, needle string) bool {
	for _, cell := range cells {
		if strings.Contains(strings.ToLower(cell), needle) {
			return true
		}
	}
	return false
}
