package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"prompterly/pkg/schema"
)

func canonicalDoc(t *testing.T) SchemaDoc {
	t.Helper()
	reg, err := schema.Canonical()
	require.NoError(t, err)
	return Describe(reg)
}

func TestDescribeKeepsDependencyOrder(t *testing.T) {
	doc := canonicalDoc(t)
	pos := map[string]int{}
	for i, td := range doc.Tables {
		pos[td.Name] = i
	}
	for _, td := range doc.Tables {
		for _, ref := range td.ForeignKeys {
			parent := strings.SplitN(ref.References, ".", 2)[0]
			if parent == td.Name {
				continue
			}
			assert.Less(t, pos[parent], pos[td.Name], "%s.%s", td.Name, ref.Column)
		}
	}
}

func TestMarkdown(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	doc := canonicalDoc(t)
	doc.Version = 14
	doc.Migration = "0014_mentor_profile"
	out, err := engine.Markdown(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "Schema version 14 (`0014_mentor_profile`).")
	assert.Contains(t, out, "## lounge_memberships")
	assert.Contains(t, out, "- `lounge_id` -> `lounges.id` on delete cascade")
	assert.Contains(t, out, "## audit_logs\n\nAppend-only")
	assert.NotContains(t, out, "<no value>")
}

func TestYAML(t *testing.T) {
	out, err := YAML(canonicalDoc(t))
	require.NoError(t, err)

	var back SchemaDoc
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.NotEmpty(t, back.Tables)
	assert.Equal(t, "users", back.Tables[0].Name)

	var found bool
	for _, td := range back.Tables {
		if td.Name != "lounge_memberships" {
			continue
		}
		for _, c := range td.Columns {
			if c.Name == "role" {
				found = true
				assert.NotEmpty(t, c.Enum)
			}
		}
	}
	assert.True(t, found)
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)
	_, err = engine.Render("missing.tmpl", nil)
	assert.Error(t, err)

	var nilEngine *Engine
	_, err = nilEngine.Render(schemaTemplate, nil)
	assert.Error(t, err)
}
