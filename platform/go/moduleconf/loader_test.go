package moduleconf

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

const membersDocument = `{
  "label": "Members",
  "resource": "members",
  "datasource": {"tenant": {"field": "church"}},
  "table": {
    "columns": [
      {"field": "name", "label": "Name"},
      {"field": "group", "label": "Group", "type": "relation", "display": "name"}
    ],
    "defaultSort": "-created"
  },
  "form": {
    "fields": [
      {"field": "name", "label": "Name", "type": "text", "required": true},
      {"field": "group", "label": "Group", "type": "relation", "collection": "groups", "labelField": "name"}
    ]
  }
}`

func newTestLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}

	loader, err := NewLoader(fsys)
	require.NoError(t, err)
	return loader
}

func TestLoadConventionalPath(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, map[string]string{"members.json": membersDocument})

	config, err := loader.Load("members")
	require.NoError(t, err)
	require.Equal(t, "members", config.Key)
	require.Equal(t, "Members", config.Label)
	require.Equal(t, "church", config.TenantField())
	require.Equal(t, []string{"group"}, config.RelationFieldsToExpand())
}

func TestLoadViaIndex(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, map[string]string{
		"index.json":          `{"members": "screens/people.json"}`,
		"screens/people.json": membersDocument,
		"members.json":        `{"broken`,
	})

	config, err := loader.Load("members")
	require.NoError(t, err)
	require.Equal(t, "Members", config.Label)
	require.ElementsMatch(t, []string{"members"}, loader.Keys())
}

func TestLoadMissingDocument(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, nil)

	_, err := loader.Load("members")
	require.ErrorIs(t, err, ErrModuleNotFound)
	require.Contains(t, err.Error(), "members")
}

func TestLoadRejectsHTMLFallback(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, map[string]string{
		"members.json": "<!DOCTYPE html><html><body>not found</body></html>",
	})

	_, err := loader.Load("members")
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTML document")
	// The HTML body must never reach the JSON decoder.
	require.NotContains(t, err.Error(), "invalid character")
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, map[string]string{"members.json": `{"label": `})

	_, err := loader.Load("members")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, map[string]string{
		"members.json": `{"label": "Members", "resource": "members", "table": {"columns": []}, "form": {"fields": []}}`,
	})

	_, err := loader.Load("members")
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema validation")
}

func TestLoadCachesByKey(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"members.json": &fstest.MapFile{Data: []byte(membersDocument)}}
	loader, err := NewLoader(fsys)
	require.NoError(t, err)

	first, err := loader.Load("members")
	require.NoError(t, err)

	// Edits after the first load are invisible for the loader's lifetime.
	fsys["members.json"] = &fstest.MapFile{Data: []byte(`{"broken`)}

	second, err := loader.Load("members")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestOptionShorthand(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, map[string]string{
		"events.json": `{
  "label": "Events",
  "resource": "events",
  "table": {"columns": [{"field": "title", "label": "Title"}]},
  "form": {"fields": [
    {"field": "status", "label": "Status", "type": "select", "options": ["draft", {"value": "pub", "label": "Published"}]}
  ]}
}`,
	})

	config, err := loader.Load("events")
	require.NoError(t, err)

	field, ok := config.FormField("status")
	require.True(t, ok)
	require.Equal(t, []Option{{Value: "draft", Label: "draft"}, {Value: "pub", Label: "Published"}}, field.Options)
	require.True(t, field.TenantFiltered())
}
