package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/crmforge/crmforge/internal/ai"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GenerateRequest asks for an AI-designed workspace
type GenerateRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
}

// GeneratedWorkspace is the result: the created workspace and its
// entities
type GeneratedWorkspace struct {
	Workspace *domain.Workspace `json:"workspace"`
	Entities  []domain.Entity   `json:"entities"`
}

// GeneratorService builds a workspace layout from a business
// description using an AI provider. Model output is advisory: every
// proposed entity is normalized and passes the same schema checks as
// a hand-built one.
type GeneratorService struct {
	router     *ai.Router
	workspaces *WorkspaceService
	entities   *EntityService
	logger     zerolog.Logger
}

// NewGeneratorService creates a new generator service
func NewGeneratorService(router *ai.Router, workspaces *WorkspaceService, entities *EntityService, logger zerolog.Logger) *GeneratorService {
	return &GeneratorService{
		router:     router,
		workspaces: workspaces,
		entities:   entities,
		logger:     logger,
	}
}

// Generate designs and creates a workspace for the caller
func (s *GeneratorService) Generate(ctx context.Context, userID uuid.UUID, req GenerateRequest) (*GeneratedWorkspace, error) {
	provider, err := s.router.GetProvider(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	resp, err := provider.GenerateText(ctx, ai.Request{
		System: ai.WorkspaceSystemPrompt(),
		Prompt: ai.BuildWorkspacePrompt(req.Description),
	}, req.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	plan, err := ai.ParseWorkspacePlan(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	if plan.Name == "" || len(plan.Entities) == 0 {
		return nil, fmt.Errorf("%w: model returned an empty workspace plan", domain.ErrExternalService)
	}

	s.logger.Info().
		Str("provider", provider.Name()).
		Str("model", resp.Model).
		Int("entities", len(plan.Entities)).
		Int64("latency_ms", resp.LatencyMs).
		Msg("workspace plan generated")

	workspace, err := s.createWorkspace(ctx, userID, plan)
	if err != nil {
		return nil, err
	}

	result := &GeneratedWorkspace{Workspace: workspace}
	for _, entityPlan := range plan.Entities {
		create, ok := normalizeEntityPlan(entityPlan)
		if !ok {
			continue
		}
		entity, err := s.entities.Create(ctx, userID, workspace.ID, create)
		if err != nil {
			s.logger.Warn().Err(err).Str("entity", create.Name).Msg("skipping generated entity")
			continue
		}
		result.Entities = append(result.Entities, *entity)
	}

	if len(result.Entities) == 0 {
		return nil, fmt.Errorf("%w: no usable entities in workspace plan", domain.ErrExternalService)
	}

	return result, nil
}

// createWorkspace creates the planned workspace, retrying with a
// suffixed slug when the plain one is taken.
func (s *GeneratorService) createWorkspace(ctx context.Context, userID uuid.UUID, plan *ai.WorkspacePlan) (*domain.Workspace, error) {
	slug := Slugify(plan.Name)
	if slug == "" {
		slug = "workspace"
	}

	create := domain.WorkspaceCreate{
		Name:        plan.Name,
		Slug:        slug,
		Description: plan.Description,
	}
	workspace, err := s.workspaces.Create(ctx, userID, create)
	if err == nil {
		return workspace, nil
	}
	if !strings.Contains(err.Error(), "taken") {
		return nil, err
	}

	create.Slug = fmt.Sprintf("%s-%s", slug, uuid.NewString()[:8])
	return s.workspaces.Create(ctx, userID, create)
}

// titleCase uppercases the first letter of each space-separated word.
// Labels derived from snake_case names only ever hold ASCII words, so
// no locale handling is needed.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// normalizeEntityPlan coerces a model-proposed entity into a valid
// create request. Unusable fields degrade rather than fail: unknown
// types become text, choice fields without options are dropped.
func normalizeEntityPlan(plan ai.EntityPlan) (domain.EntityCreate, bool) {
	name := Slugify(plan.Name)
	name = strings.ReplaceAll(name, "-", "_")
	if name == "" || len(plan.Fields) == 0 {
		return domain.EntityCreate{}, false
	}

	displayName := plan.DisplayName
	if displayName == "" {
		displayName = titleCase(strings.ReplaceAll(name, "_", " "))
	}
	singular := plan.SingularName
	if singular == "" {
		singular = strings.TrimSuffix(displayName, "s")
	}

	var fields []domain.FieldDefinition
	for _, fp := range plan.Fields {
		fieldName := strings.ReplaceAll(Slugify(fp.Name), "-", "_")
		if fieldName == "" {
			continue
		}
		fieldType := domain.FieldType(fp.Type)
		if !fieldType.Valid() {
			fieldType = domain.FieldText
		}
		switch fieldType {
		case domain.FieldSelect, domain.FieldMultiselect:
			if len(fp.Options) == 0 {
				continue
			}
		}
		label := fp.Label
		if label == "" {
			label = titleCase(strings.ReplaceAll(fieldName, "_", " "))
		}
		fields = append(fields, domain.FieldDefinition{
			Name:     fieldName,
			Label:    label,
			Type:     fieldType,
			Required: fp.Required,
			Options:  fp.Options,
		})
	}
	if len(fields) == 0 {
		return domain.EntityCreate{}, false
	}

	return domain.EntityCreate{
		Name:         name,
		DisplayName:  displayName,
		SingularName: singular,
		Icon:         plan.Icon,
		Color:        plan.Color,
		Fields:       fields,
	}, true
}

// RouterText adapts the AI router to the automation engine's text
// generator
type RouterText struct {
	router *ai.Router
}

// NewRouterText creates a new router-backed text generator
func NewRouterText(router *ai.Router) *RouterText {
	return &RouterText{router: router}
}

// GenerateText produces text with the default provider and model
func (r *RouterText) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	provider, err := r.router.GetProvider("")
	if err != nil {
		return "", err
	}
	resp, err := provider.GenerateText(ctx, ai.Request{System: system, Prompt: prompt}, "")
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
