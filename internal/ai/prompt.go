package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WorkspacePlan is the JSON shape the model is asked to produce when
// generating a CRM layout from a business description.
type WorkspacePlan struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Entities    []EntityPlan  `json:"entities"`
}

// EntityPlan is one proposed entity in a workspace plan
type EntityPlan struct {
	Name         string      `json:"name"`
	DisplayName  string      `json:"display_name"`
	SingularName string      `json:"singular_name"`
	Icon         string      `json:"icon"`
	Color        string      `json:"color"`
	Fields       []FieldPlan `json:"fields"`
}

// FieldPlan is one proposed field in an entity plan
type FieldPlan struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

const workspaceSystemPrompt = "You are an expert CRM architect. Respond with ONLY valid JSON, no explanations or markdown formatting."

// WorkspaceSystemPrompt returns the system prompt for workspace
// generation
func WorkspaceSystemPrompt() string {
	return workspaceSystemPrompt
}

// BuildWorkspacePrompt creates a prompt asking the model to design a
// CRM layout for a business description
func BuildWorkspacePrompt(description string) string {
	return fmt.Sprintf(`Design a CRM workspace for the following business.

Business description: %s

Rules:
1. Respond with ONLY a JSON object, no explanations or markdown
2. Propose between 2 and 6 entities that fit the business
3. Field types must be one of: text, textarea, email, phone, url, number, currency, date, datetime, checkbox, select, multiselect
4. Entity and field names must be lowercase with underscores
5. select and multiselect fields must include an "options" array
6. Every entity needs at least one required text field

JSON shape:
{
  "name": "workspace name",
  "description": "one sentence",
  "entities": [
    {
      "name": "contacts",
      "display_name": "Contacts",
      "singular_name": "Contact",
      "icon": "user",
      "color": "#4f46e5",
      "fields": [
        {"name": "full_name", "label": "Full Name", "type": "text", "required": true}
      ]
    }
  ]
}

JSON:`, description)
}

// ParseWorkspacePlan extracts and decodes the plan from a model
// response, tolerating markdown fences.
func ParseWorkspacePlan(content string) (*WorkspacePlan, error) {
	payload := ExtractJSON(content)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var plan WorkspacePlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("failed to decode workspace plan: %w", err)
	}
	return &plan, nil
}

// ExtractJSON extracts a JSON object from a model response, stripping
// surrounding prose and markdown code fences.
func ExtractJSON(content string) string {
	if body := extractFromCodeBlock(content, "```json", "```"); body != "" {
		content = body
	} else if body := extractFromCodeBlock(content, "```", "```"); body != "" {
		content = body
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	if contentStart < len(content) && content[contentStart] == '\n' {
		contentStart++
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}
