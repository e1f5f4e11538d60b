package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/metrics"
	"github.com/inamate/planner/internal/store"
	"github.com/inamate/planner/internal/typeid"
)

var (
	ErrNotFound      = errors.New("plan not found")
	ErrForbidden     = errors.New("forbidden")
	ErrNotMember     = errors.New("not a plan member")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyMember = errors.New("user is already a member")
	ErrInvalidID     = errors.New("invalid plan id")
)

// Rooms receives workbooks saved over REST so an open collaboration room
// does not keep editing, and later autosave, a stale copy.
type Rooms interface {
	Replace(planID string, wb *document.Workbook) bool
}

// Thumbnailer renders plan previews after each save.
type Thumbnailer interface {
	Save(planID string, wb *document.Workbook) error
	Remove(planID string) error
}

type Service struct {
	store   store.Store
	thumbs  Thumbnailer
	metrics *metrics.Metrics
	rooms   Rooms
}

type Option func(*Service)

func WithThumbnails(t Thumbnailer) Option {
	return func(s *Service) { s.thumbs = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseRooms connects the service to the collaboration hub. The hub is built
// after the service because it loads and saves through it.
func (s *Service) UseRooms(r Rooms) {
	s.rooms = r
}

type Plan struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Create stores a new plan owned by ownerID, seeded with a workbook holding
// one empty drawing.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Plan, error) {
	now := time.Now().UTC()
	p := store.Plan{
		ID:        typeid.NewPlanID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	if _, err := s.Persist(ctx, p.ID, document.NewWorkbook()); err != nil {
		if derr := s.store.DeletePlan(ctx, p.ID); derr != nil {
			slog.Error("remove plan without snapshot", "plan", p.ID, "error", derr)
		}
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toPlan(p), nil
}

func (s *Service) Get(ctx context.Context, planID, userID string) (*Plan, error) {
	if err := s.Authorize(ctx, planID, userID); err != nil {
		return nil, err
	}

	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return toPlan(p), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Plan, error) {
	stored, err := s.store.ListPlansForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	plans := make([]Plan, len(stored))
	for i, p := range stored {
		plans[i] = *toPlan(p)
	}
	return plans, nil
}

func (s *Service) Delete(ctx context.Context, planID, userID string) error {
	if err := s.requireOwner(ctx, planID, userID); err != nil {
		return err
	}

	if err := s.store.DeletePlan(ctx, planID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete plan: %w", err)
	}
	if s.thumbs != nil {
		if err := s.thumbs.Remove(planID); err != nil {
			slog.Warn("remove thumbnail failed", "plan", planID, "error", err)
		}
	}
	return nil
}

func (s *Service) InviteByEmail(ctx context.Context, planID, ownerID, inviteeEmail string) error {
	if err := s.requireOwner(ctx, planID, ownerID); err != nil {
		return err
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.store.AddMember(ctx, planID, invitee.ID, store.RoleEditor); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, planID, userID string) ([]Member, error) {
	if err := s.Authorize(ctx, planID, userID); err != nil {
		return nil, err
	}

	stored, err := s.store.ListMembers(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(stored))
	for i, m := range stored {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        string(m.Role),
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}
	return members, nil
}

// SaveWorkbook stores wb as the plan's next version on behalf of a member.
// An open collaboration room adopts wb and resyncs its clients.
func (s *Service) SaveWorkbook(ctx context.Context, planID, userID string, wb *document.Workbook) (int, error) {
	if err := s.Authorize(ctx, planID, userID); err != nil {
		return 0, err
	}
	version, err := s.Persist(ctx, planID, wb)
	if err != nil {
		return 0, err
	}
	if s.rooms != nil && s.rooms.Replace(planID, wb) {
		slog.Debug("saved workbook pushed to open room", "plan", planID, "version", version)
	}
	return version, nil
}

// LoadWorkbook returns the latest saved workbook for a member.
func (s *Service) LoadWorkbook(ctx context.Context, planID, userID string) (*document.Workbook, error) {
	if err := s.Authorize(ctx, planID, userID); err != nil {
		return nil, err
	}
	return s.Load(ctx, planID)
}

// Persist writes a snapshot without a membership check. The collaboration
// hub calls it for autosaves.
func (s *Service) Persist(ctx context.Context, planID string, wb *document.Workbook) (int, error) {
	version, err := s.persist(ctx, planID, wb)
	s.metrics.RecordSave(err)
	return version, err
}

func (s *Service) persist(ctx context.Context, planID string, wb *document.Workbook) (int, error) {
	data, err := json.Marshal(wb)
	if err != nil {
		return 0, fmt.Errorf("marshal workbook: %w", err)
	}

	snap, err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), planID, data)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("create snapshot: %w", err)
	}

	if s.thumbs != nil {
		if err := s.thumbs.Save(planID, wb); err != nil {
			slog.Warn("thumbnail failed", "plan", planID, "error", err)
		}
	}
	return snap.Version, nil
}

// Load returns the latest saved workbook without a membership check. A plan
// with no snapshot yet loads as a fresh workbook.
func (s *Service) Load(ctx context.Context, planID string) (*document.Workbook, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, planID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get snapshot: %w", err)
		}
		if _, perr := s.store.GetPlan(ctx, planID); perr != nil {
			if errors.Is(perr, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get plan: %w", perr)
		}
		return document.NewWorkbook(), nil
	}

	wb := document.NewWorkbook()
	if err := json.Unmarshal(snap.Document, wb); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return wb, nil
}

// Authorize returns nil when userID belongs to the plan.
func (s *Service) Authorize(ctx context.Context, planID, userID string) error {
	if err := typeid.Validate(planID, typeid.PrefixPlan); err != nil {
		return ErrInvalidID
	}
	_, err := s.store.GetMember(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, planID, userID string) error {
	if err := typeid.Validate(planID, typeid.PrefixPlan); err != nil {
		return ErrInvalidID
	}
	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get plan: %w", err)
	}
	if p.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func toPlan(p store.Plan) *Plan {
	return &Plan{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
