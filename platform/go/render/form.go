package render

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/resource"
)

// FormView is the view model for one modal form render.
type FormView struct {
	ModuleKey string
	Title     string
	// RecordID is empty for "new", otherwise the record under edit.
	RecordID string
	Fields   []FieldView
	// Error carries an inline failure message; the form re-renders with the
	// submitted values intact instead of closing.
	Error string
}

// IsNew reports whether the form creates a record rather than editing one.
func (v FormView) IsNew() bool {
	return v.RecordID == ""
}

// FieldView is one rendered form control.
type FieldView struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Value    string
	Checked  bool
	Options  []OptionView
}

// OptionView is one option of a select or relation control.
type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// Form maps the module's field configuration to form controls and back.
type Form struct {
	cfg *moduleconf.Config
	sc  *ScreenContext
}

// NewForm builds a Form bound to one screen context. Relation options are
// cached on the context, so rebuilding the context (a new screen, a new
// modal) naturally invalidates them.
func NewForm(sc *ScreenContext) *Form {
	if sc == nil {
		panic("screen context is required")
	}
	return &Form{cfg: sc.Module, sc: sc}
}

// View populates the form from a record; an empty record denotes "new".
// Relation fields load their candidate options here.
func (f *Form) View(ctx context.Context, record resource.Record) (FormView, error) {
	view := FormView{
		ModuleKey: f.cfg.Key,
		Title:     f.cfg.Label,
		RecordID:  record.ID(),
	}

	for _, field := range f.cfg.Form.Fields {
		fieldView, err := f.fieldView(ctx, field, record[field.Field])
		if err != nil {
			return FormView{}, err
		}
		view.Fields = append(view.Fields, fieldView)
	}

	return view, nil
}

// ViewFromValues rebuilds the form from submitted values after a failed
// save, so the user's input survives the round trip.
func (f *Form) ViewFromValues(ctx context.Context, values url.Values, recordID, errorMessage string) (FormView, error) {
	record := resource.Record{}
	if recordID != "" {
		record["id"] = recordID
	}
	for _, field := range f.cfg.Form.Fields {
		if v, ok := values[field.Field]; ok && len(v) > 0 {
			record[field.Field] = v[0]
		}
	}

	view, err := f.View(ctx, record)
	if err != nil {
		return FormView{}, err
	}
	view.Error = errorMessage
	return view, nil
}

// Decode collects exactly one value per declared field from the submitted
// form, coercing numbers and booleans and attempting a JSON parse for
// json-typed fields. The payload never includes tenant scoping; the screen
// layer stamps it.
func (f *Form) Decode(values url.Values) map[string]any {
	payload := make(map[string]any, len(f.cfg.Form.Fields))

	for _, field := range f.cfg.Form.Fields {
		raw := values.Get(field.Field)

		switch field.Type {
		case "bool":
			payload[field.Field] = raw == "on" || raw == "true" || raw == "1"
		case "number":
			if strings.TrimSpace(raw) == "" {
				payload[field.Field] = nil
				continue
			}
			number, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				payload[field.Field] = raw
				continue
			}
			payload[field.Field] = number
		case "json":
			var parsed any
			if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
				payload[field.Field] = raw
				continue
			}
			payload[field.Field] = parsed
		default:
			payload[field.Field] = raw
		}
	}

	return payload
}

func (f *Form) fieldView(ctx context.Context, field moduleconf.Field, value any) (FieldView, error) {
	view := FieldView{
		Name:     field.Field,
		Label:    field.Label,
		Type:     field.Type,
		Required: field.Required,
	}

	current := resource.Stringify(value)

	switch field.Type {
	case "bool":
		view.Checked = isTruthy(value)
	case "select":
		for _, option := range field.Options {
			view.Options = append(view.Options, OptionView{
				Value:    option.Value,
				Label:    option.Label,
				Selected: option.Value == current,
			})
		}
	case "relation":
		options, err := f.sc.RelationOptions(ctx, field)
		if err != nil {
			return FieldView{}, err
		}
		for _, option := range options {
			view.Options = append(view.Options, OptionView{
				Value:    option.ID,
				Label:    option.Label,
				Selected: option.ID == current,
			})
		}
	case "json":
		view.Value = jsonValue(value)
	default:
		view.Value = current
	}

	return view, nil
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "on" || v == "true" || v == "1"
	default:
		return false
	}
}

// jsonValue renders a structured value back into its textarea form.
func jsonValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return resource.Stringify(v)
		}
		return string(encoded)
	}
}
