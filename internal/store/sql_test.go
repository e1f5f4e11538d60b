package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func setupMockDB(t *testing.T, dialect Dialect) (*sql.DB, sqlmock.Sqlmock, *SQLStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock, NewSQLStore(db, dialect)
}

func TestSQLStore_CreateUser(t *testing.T) {
	created := time.UnixMilli(1700000000000)

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantErr   error
		wantAny   bool
	}{
		{
			name: "inserted",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO users").
					WithArgs("user_1", "a@example.com", "hash", "Ada", int64(1700000000000)).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "unique violation",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO users").
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: ErrDuplicate,
		},
		{
			name: "connection error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO users").
					WillReturnError(errors.New("connection refused"))
			},
			wantAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, s := setupMockDB(t, Postgres)
			tt.setupMock(mock)

			err := s.CreateUser(context.Background(), User{
				ID: "user_1", Email: "a@example.com", PasswordHash: "hash",
				DisplayName: "Ada", CreatedAt: created,
			})
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAny:
				if err == nil || errors.Is(err, ErrDuplicate) {
					t.Errorf("err = %v, want wrapped driver error", err)
				}
			default:
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSQLStore_GetUserByEmail(t *testing.T) {
	_, mock, s := setupMockDB(t, SQLite)

	mock.ExpectQuery("SELECT id, email, password, display_name, created_at").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "display_name", "created_at"}).
			AddRow("user_1", "a@example.com", "hash", "Ada", int64(1700000000000)))
	mock.ExpectQuery("SELECT id, email, password, display_name, created_at").
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	u, err := s.GetUserByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.ID != "user_1" || u.DisplayName != "Ada" || u.CreatedAt.UnixMilli() != 1700000000000 {
		t.Errorf("user = %+v", u)
	}

	if _, err := s.GetUserByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLStore_CreatePlanAddsOwner(t *testing.T) {
	_, mock, s := setupMockDB(t, Postgres)
	now := time.UnixMilli(1700000000000)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO plans").
		WithArgs("plan_1", "Flat", "user_1", now.UnixMilli(), now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO plan_members").
		WithArgs("plan_1", "user_1", "owner", now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.CreatePlan(context.Background(), Plan{
		ID: "plan_1", Name: "Flat", OwnerID: "user_1", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLStore_ListPlansForUser(t *testing.T) {
	_, mock, s := setupMockDB(t, SQLite)

	rows := sqlmock.NewRows([]string{"id", "name", "owner_id", "created_at", "updated_at"}).
		AddRow("plan_2", "Office", "user_1", int64(2000), int64(5000)).
		AddRow("plan_1", "Flat", "user_2", int64(1000), int64(3000))
	mock.ExpectQuery("SELECT p.id, p.name").WithArgs("user_1").WillReturnRows(rows)

	plans, err := s.ListPlansForUser(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("ListPlansForUser: %v", err)
	}
	if len(plans) != 2 || plans[0].ID != "plan_2" || plans[1].OwnerID != "user_2" {
		t.Errorf("plans = %+v", plans)
	}
}

func TestSQLStore_DeletePlanMissing(t *testing.T) {
	_, mock, s := setupMockDB(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM plan_snapshots").WithArgs("plan_9").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM plan_members").WithArgs("plan_9").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM plans").WithArgs("plan_9").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := s.DeletePlan(context.Background(), "plan_9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLStore_CreateSnapshotNextVersion(t *testing.T) {
	_, mock, s := setupMockDB(t, Postgres)
	doc := []byte(`{"drawings":[{"elements":[]}]}`)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("plan_1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
	mock.ExpectExec("INSERT INTO plan_snapshots").
		WithArgs("snap_1", "plan_1", 3, string(doc), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE plans SET updated_at").
		WithArgs(sqlmock.AnyArg(), "plan_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	snap, err := s.CreateSnapshot(context.Background(), "snap_1", "plan_1", doc)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if snap.Version != 3 || string(snap.Document) != string(doc) {
		t.Errorf("snapshot = %+v", snap)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLStore_GetLatestSnapshot(t *testing.T) {
	_, mock, s := setupMockDB(t, SQLite)

	mock.ExpectQuery("FROM plan_snapshots").
		WithArgs("plan_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "version", "document", "created_at"}).
			AddRow("snap_2", "plan_1", 2, `{"drawings":[]}`, int64(1000)))
	mock.ExpectQuery("FROM plan_snapshots").
		WithArgs("plan_2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "version", "document", "created_at"}))

	snap, err := s.GetLatestSnapshot(context.Background(), "plan_1")
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if snap.Version != 2 || string(snap.Document) != `{"drawings":[]}` {
		t.Errorf("snapshot = %+v", snap)
	}

	if _, err := s.GetLatestSnapshot(context.Background(), "plan_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	if got := Postgres.rebind(q); got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := SQLite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", SQLite, false},
		{"SQLite3", SQLite, false},
		{"postgres", Postgres, false},
		{"pgx", Postgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSQLitePath(t *testing.T) {
	tests := map[string]string{
		"data/planner.db":               "data/planner.db",
		"file:data/planner.db?mode=rwc": "data/planner.db",
		":memory:":                      "",
		"file::memory:?cache=shared":    "",
	}
	for dsn, want := range tests {
		if got := sqlitePath(dsn); got != want {
			t.Errorf("sqlitePath(%q) = %q, want %q", dsn, got, want)
		}
	}
}

func TestSQLStore_MigrateRunsEachFileWhole(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	tests := []struct {
		name    string
		fail    bool
		wantErr bool
	}{
		{name: "applied"},
		{name: "driver error", fail: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			if err != nil {
				t.Fatalf("failed to create mock db: %v", err)
			}
			defer db.Close()

			for _, entry := range entries {
				body, err := migrations.ReadFile("migrations/" + entry.Name())
				if err != nil {
					t.Fatal(err)
				}
				exp := mock.ExpectExec(string(body))
				if tt.fail {
					exp.WillReturnError(errors.New("syntax error"))
					break
				}
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			err = NewSQLStore(db, Postgres).Migrate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Migrate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), entries[0].Name()) {
				t.Errorf("error %q does not name the migration", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}
