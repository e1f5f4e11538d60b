package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate runs every embedded migration in name order. The statements are
// idempotent, so this is safe on every start. Each file is sent as a single
// argument-free Exec, which pgx (simple protocol) and SQLite both run as a
// multi-statement script, so literals and trigger bodies may contain ';'.
func (s *SQLStore) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, entry := range entries {
		body, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		if _, err := s.db.Exec(string(body)); err != nil {
			return fmt.Errorf("migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.exec(ctx, `
		INSERT INTO users (id, email, password, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, millis(u.CreatedAt))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *SQLStore) getUser(ctx context.Context, column, value string) (User, error) {
	row := s.queryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE `+column+` = ?`, value)

	var u User
	var created int64
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}

// CreatePlan inserts the plan and its owner membership in one transaction.
func (s *SQLStore) CreatePlan(ctx context.Context, p Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO plans (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		p.ID, p.Name, p.OwnerID, millis(p.CreatedAt), millis(p.UpdatedAt)); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create plan: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO plan_members (plan_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)`),
		p.ID, p.OwnerID, string(RoleOwner), millis(p.CreatedAt)); err != nil {
		return fmt.Errorf("add owner: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) GetPlan(ctx context.Context, id string) (Plan, error) {
	row := s.queryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (s *SQLStore) ListPlansForUser(ctx context.Context, userID string) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT p.id, p.name, p.owner_id, p.created_at, p.updated_at
		FROM plans p
		JOIN plan_members m ON m.plan_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.updated_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *SQLStore) DeletePlan(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM plan_snapshots WHERE plan_id = ?`,
		`DELETE FROM plan_members WHERE plan_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(q), id); err != nil {
			return fmt.Errorf("delete plan: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM plans WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLStore) AddMember(ctx context.Context, planID, userID string, role Role) error {
	_, err := s.exec(ctx, `
		INSERT INTO plan_members (plan_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)`,
		planID, userID, string(role), millis(time.Now()))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *SQLStore) GetMember(ctx context.Context, planID, userID string) (Member, error) {
	row := s.queryRow(ctx, `
		SELECT m.plan_id, m.user_id, m.role, u.display_name, u.email
		FROM plan_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.plan_id = ? AND m.user_id = ?`, planID, userID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *SQLStore) ListMembers(ctx context.Context, planID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT m.plan_id, m.user_id, m.role, u.display_name, u.email
		FROM plan_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.plan_id = ?
		ORDER BY m.created_at`), planID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLStore) CreateSnapshot(ctx context.Context, id, planID string, doc []byte) (Snapshot, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT COALESCE(MAX(version), 0) + 1 FROM plan_snapshots WHERE plan_id = ?`),
		planID).Scan(&version); err != nil {
		return Snapshot{}, fmt.Errorf("next version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO plan_snapshots (id, plan_id, version, document, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		id, planID, version, string(doc), millis(now)); err != nil {
		if isDuplicate(err) {
			return Snapshot{}, ErrDuplicate
		}
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
		UPDATE plans SET updated_at = ? WHERE id = ?`), millis(now), planID); err != nil {
		return Snapshot{}, fmt.Errorf("touch plan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}

	return Snapshot{ID: id, PlanID: planID, Version: version, Document: doc, CreatedAt: now}, nil
}

func (s *SQLStore) GetLatestSnapshot(ctx context.Context, planID string) (Snapshot, error) {
	row := s.queryRow(ctx, `
		SELECT id, plan_id, version, document, created_at
		FROM plan_snapshots
		WHERE plan_id = ?
		ORDER BY version DESC
		LIMIT 1`, planID)

	var snap Snapshot
	var doc string
	var created int64
	if err := row.Scan(&snap.ID, &snap.PlanID, &snap.Version, &doc, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Document = []byte(doc)
	snap.CreatedAt = time.UnixMilli(created).UTC()
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (Plan, error) {
	var p Plan
	var created, updated int64
	if err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &created, &updated); err != nil {
		return Plan{}, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

func scanMember(row scanner) (Member, error) {
	var m Member
	var role string
	if err := row.Scan(&m.PlanID, &m.UserID, &role, &m.DisplayName, &m.Email); err != nil {
		return Member{}, err
	}
	m.Role = Role(role)
	return m, nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}
