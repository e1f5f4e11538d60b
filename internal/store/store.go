// Package store persists users, plans, plan membership and workbook
// snapshots. SQLStore backs the server; MemoryStore backs tests and tools.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Plan struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	PlanID      string
	UserID      string
	Role        Role
	DisplayName string
	Email       string
}

// Snapshot is one saved version of a plan's workbook. Document holds the
// workbook JSON exactly as it was written.
type Snapshot struct {
	ID        string
	PlanID    string
	Version   int
	Document  []byte
	CreatedAt time.Time
}

type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	CreatePlan(ctx context.Context, p Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlansForUser(ctx context.Context, userID string) ([]Plan, error)
	DeletePlan(ctx context.Context, id string) error

	AddMember(ctx context.Context, planID, userID string, role Role) error
	GetMember(ctx context.Context, planID, userID string) (Member, error)
	ListMembers(ctx context.Context, planID string) ([]Member, error)

	// CreateSnapshot stores doc as the plan's next version and bumps the
	// plan's UpdatedAt.
	CreateSnapshot(ctx context.Context, id, planID string, doc []byte) (Snapshot, error)
	GetLatestSnapshot(ctx context.Context, planID string) (Snapshot, error)
}
