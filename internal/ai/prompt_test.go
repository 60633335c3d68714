package ai_test

import (
	"testing"

	"github.com/crmforge/crmforge/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bare object", `{"name":"x"}`, `{"name":"x"}`},
		{"json fence", "```json\n{\"name\":\"x\"}\n```", `{"name":"x"}`},
		{"plain fence", "```\n{\"name\":\"x\"}\n```", `{"name":"x"}`},
		{"surrounding prose", "Here you go:\n{\"name\":\"x\"}\nHope this helps!", `{"name":"x"}`},
		{"no object", "sorry, I cannot help", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ai.ExtractJSON(tc.content))
		})
	}
}

func TestParseWorkspacePlan(t *testing.T) {
	content := "```json\n" + `{
		"name": "Bakery CRM",
		"description": "Track wholesale bakery customers",
		"entities": [
			{
				"name": "customers",
				"display_name": "Customers",
				"singular_name": "Customer",
				"fields": [
					{"name": "company_name", "label": "Company Name", "type": "text", "required": true},
					{"name": "tier", "label": "Tier", "type": "select", "options": ["retail", "wholesale"]}
				]
			}
		]
	}` + "\n```"

	plan, err := ai.ParseWorkspacePlan(content)
	require.NoError(t, err)
	assert.Equal(t, "Bakery CRM", plan.Name)
	require.Len(t, plan.Entities, 1)
	assert.Equal(t, "customers", plan.Entities[0].Name)
	require.Len(t, plan.Entities[0].Fields, 2)
	assert.Equal(t, []string{"retail", "wholesale"}, plan.Entities[0].Fields[1].Options)
}

func TestParseWorkspacePlan_BadPayload(t *testing.T) {
	_, err := ai.ParseWorkspacePlan("not json at all")
	assert.Error(t, err)

	_, err = ai.ParseWorkspacePlan(`{"entities": "wrong type"}`)
	assert.Error(t, err)
}

func TestBuildWorkspacePrompt(t *testing.T) {
	prompt := ai.BuildWorkspacePrompt("a dog walking business")
	assert.Contains(t, prompt, "a dog walking business")
	assert.Contains(t, prompt, "multiselect")
}
