package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contracts implemented by the postgres package. Services
// depend on these so tests can substitute mocks.

type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error)
	GetBySlug(ctx context.Context, slug string) (*Workspace, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]Workspace, error)
	Update(ctx context.Context, id uuid.UUID, update *WorkspaceUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Upsert(ctx context.Context, user *UserProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)
}

type MemberRepository interface {
	Add(ctx context.Context, member *Member) error
	Get(ctx context.Context, workspaceID, userID uuid.UUID) (*Member, error)
	List(ctx context.Context, workspaceID uuid.UUID) ([]Member, error)
	UpdateRole(ctx context.Context, workspaceID, userID uuid.UUID, role Role) error
	Remove(ctx context.Context, workspaceID, userID uuid.UUID) error
}

type EntityRepository interface {
	Create(ctx context.Context, entity *Entity) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*Entity, error)
	GetByName(ctx context.Context, workspaceID uuid.UUID, name string) (*Entity, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Entity, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, update *EntityUpdate) error
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type RecordRepository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*Record, error)
	List(ctx context.Context, workspaceID, entityID uuid.UUID, filter RecordFilter, page Pagination) (Page[Record], error)
	Update(ctx context.Context, record *Record) error
	Archive(ctx context.Context, workspaceID, id, userID uuid.UUID, archived bool) error
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
	DeleteMany(ctx context.Context, workspaceID, entityID uuid.UUID, ids []uuid.UUID) (int64, error)
	ArchiveMany(ctx context.Context, workspaceID, entityID, userID uuid.UUID, ids []uuid.UUID, archived bool) (int64, error)
}

type RelationshipRepository interface {
	Create(ctx context.Context, rel *Relationship) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*Relationship, error)
	ListByRecord(ctx context.Context, workspaceID, recordID uuid.UUID) ([]Relationship, error)
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
}

type AutomationRepository interface {
	Create(ctx context.Context, rule *Rule) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*Rule, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, entityID *uuid.UUID) ([]Rule, error)
	ListForTrigger(ctx context.Context, workspaceID, entityID uuid.UUID, triggerType TriggerType) ([]Rule, error)
	Update(ctx context.Context, workspaceID, id uuid.UUID, update *RuleUpdate) error
	Delete(ctx context.Context, workspaceID, id uuid.UUID) error
	MarkExecuted(ctx context.Context, workspaceID, id uuid.UUID) error
	LogExecution(ctx context.Context, exec *Execution) error
	ListExecutions(ctx context.Context, workspaceID, ruleID uuid.UUID, page Pagination) (Page[Execution], error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*Activity, error)
	ListByRecord(ctx context.Context, workspaceID, recordID uuid.UUID, page Pagination) (Page[Activity], error)
	Complete(ctx context.Context, workspaceID, id uuid.UUID, completedAt time.Time) error
	Reschedule(ctx context.Context, workspaceID, id uuid.UUID, scheduledAt time.Time) error
}
