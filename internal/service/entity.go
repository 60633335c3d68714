package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/validation"
	"github.com/google/uuid"
)

// EntityCache caches entity definitions for the record write path.
// The redis implementation satisfies this; a nil cache disables
// caching.
type EntityCache interface {
	Get(ctx context.Context, workspaceID, entityID uuid.UUID) (*domain.Entity, error)
	Set(ctx context.Context, entity *domain.Entity) error
	Invalidate(ctx context.Context, workspaceID, entityID uuid.UUID) error
}

var entityNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// EntityService handles entity schema operations
type EntityService struct {
	entities  domain.EntityRepository
	cache     EntityCache
	validator *validation.Validator
	authz     *Authorizer
}

// NewEntityService creates a new entity service
func NewEntityService(entities domain.EntityRepository, cache EntityCache, validator *validation.Validator, authz *Authorizer) *EntityService {
	return &EntityService{
		entities:  entities,
		cache:     cache,
		validator: validator,
		authz:     authz,
	}
}

// Create defines a new entity, requiring admin
func (s *EntityService) Create(ctx context.Context, userID, workspaceID uuid.UUID, input domain.EntityCreate) (*domain.Entity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageSchema); err != nil {
		return nil, err
	}

	if !entityNamePattern.MatchString(input.Name) {
		verr := &domain.ValidationError{}
		verr.Add("name", "entity name must be lowercase letters, digits and underscores")
		return nil, verr
	}
	if err := s.validator.CheckSchema(input.Fields); err != nil {
		return nil, err
	}

	views := input.Views
	if len(views) == 0 {
		views = []domain.ViewType{domain.ViewTable}
	}
	defaultView := input.DefaultView
	if defaultView == "" {
		defaultView = views[0]
	}
	if err := checkViews(views, defaultView); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entity := &domain.Entity{
		ID:           uuid.New(),
		WorkspaceID:  workspaceID,
		Name:         input.Name,
		DisplayName:  input.DisplayName,
		SingularName: input.SingularName,
		Icon:         input.Icon,
		Color:        input.Color,
		Description:  input.Description,
		Fields:       input.Fields,
		Views:        views,
		DefaultView:  defaultView,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.entities.Create(ctx, entity); err != nil {
		if err == domain.ErrDuplicate {
			return nil, fmt.Errorf("%w: entity %q already exists", domain.ErrDuplicate, input.Name)
		}
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	return entity, nil
}

// GetByID retrieves an entity
func (s *EntityService) GetByID(ctx context.Context, userID, workspaceID, entityID uuid.UUID) (*domain.Entity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	return s.load(ctx, workspaceID, entityID)
}

// load fetches an entity through the cache, bypassing authorization.
// Callers authorize first.
func (s *EntityService) load(ctx context.Context, workspaceID, entityID uuid.UUID) (*domain.Entity, error) {
	if s.cache != nil {
		if entity, _ := s.cache.Get(ctx, workspaceID, entityID); entity != nil {
			return entity, nil
		}
	}

	entity, err := s.entities.GetByID(ctx, workspaceID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	if entity == nil {
		return nil, domain.ErrNotFound
	}

	if s.cache != nil {
		s.cache.Set(ctx, entity)
	}
	return entity, nil
}

// List retrieves all entities of a workspace. Record counts come from
// the listing query and cover unarchived records only.
func (s *EntityService) List(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Entity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	entities, err := s.entities.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	return entities, nil
}

// Update modifies an entity definition, requiring admin
func (s *EntityService) Update(ctx context.Context, userID, workspaceID, entityID uuid.UUID, input domain.EntityUpdate) (*domain.Entity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageSchema); err != nil {
		return nil, err
	}

	if input.Fields != nil {
		if err := s.validator.CheckSchema(*input.Fields); err != nil {
			return nil, err
		}
	}
	if input.Views != nil || input.DefaultView != nil {
		current, err := s.load(ctx, workspaceID, entityID)
		if err != nil {
			return nil, err
		}
		views := current.Views
		if input.Views != nil {
			views = *input.Views
		}
		defaultView := current.DefaultView
		if input.DefaultView != nil {
			defaultView = *input.DefaultView
		}
		if err := checkViews(views, defaultView); err != nil {
			return nil, err
		}
	}

	if err := s.entities.Update(ctx, workspaceID, entityID, &input); err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, workspaceID, entityID)
	}

	return s.load(ctx, workspaceID, entityID)
}

// Delete removes an entity and everything stored against it,
// requiring admin. System entities are protected.
func (s *EntityService) Delete(ctx context.Context, userID, workspaceID, entityID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapDeleteEntity); err != nil {
		return err
	}

	entity, err := s.entities.GetByID(ctx, workspaceID, entityID)
	if err != nil {
		return fmt.Errorf("failed to get entity: %w", err)
	}
	if entity == nil {
		return domain.ErrNotFound
	}
	if entity.IsSystem {
		return fmt.Errorf("%w: system entities cannot be deleted", domain.ErrProtected)
	}

	if err := s.entities.Delete(ctx, workspaceID, entityID); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, workspaceID, entityID)
	}
	return nil
}

func checkViews(views []domain.ViewType, defaultView domain.ViewType) error {
	verr := &domain.ValidationError{}
	seen := make(map[domain.ViewType]bool, len(views))
	for _, view := range views {
		if !view.Valid() {
			verr.Add("views", fmt.Sprintf("unknown view type %q", view))
		}
		seen[view] = true
	}
	if !seen[defaultView] {
		verr.Add("default_view", "default view must be one of the enabled views")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
