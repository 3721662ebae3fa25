// ABOUTME: Failure-path tests for SQLite storage using go-sqlmock.
// ABOUTME: Verifies driver errors map to ErrConflict, ErrNotFound or wrapped errors.
package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return newDB(conn, "mock"), mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"))

	err := db.CreateUser(models.NewUser("harper"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetUserWrapsQueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT .* FROM users WHERE username").WillReturnError(boom)

	_, err := db.GetUser("harper")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("driver failure must not look like not found")
	}
}

func TestGetUserNoRows(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT .* FROM users WHERE username").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := db.GetUser("harper"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserAttributeNoRowsAffected(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec("UPDATE user_attributes").WillReturnResult(sqlmock.NewResult(0, 0))

	a := models.NewAttribute("steps", "Steps", models.TypeInteger)
	ua := models.NewUserAttribute(models.NewUser("harper").ID, a)
	if err := db.UpdateUserAttribute(ua); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateServiceRollsBackOnAttributeFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO services").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO service_attributes").
		WillReturnError(errors.New("FOREIGN KEY constraint failed"))
	mock.ExpectRollback()

	steps := models.NewAttribute("steps", "Steps", models.TypeInteger)
	svc := models.NewService("fitbit", "Fitbit").WithAttributes(steps)
	err := db.CreateService(svc)
	if err == nil {
		t.Fatal("expected error when service attribute insert fails")
	}
	if errors.Is(err, ErrConflict) {
		t.Errorf("foreign key failure should not map to ErrConflict: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPutUserAttributeDataWrapsFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec("INSERT INTO user_attribute_data").WillReturnError(errors.New("database is locked"))

	a := models.NewAttribute("steps", "Steps", models.TypeInteger)
	ua := models.NewUserAttribute(models.NewUser("harper").ID, a)
	point := models.NewUserAttributeData(ua, models.Day(a.CreatedAt))
	_ = point.SetValue(10)

	err := db.PutUserAttributeData(point)
	if err == nil || errors.Is(err, ErrConflict) {
		t.Fatalf("expected plain wrapped error, got %v", err)
	}
}

func TestListRejectsCorruptIDs(t *testing.T) {
	good := uuid.New().String()
	created := "2026-01-02T03:04:05Z"

	tests := []struct {
		name    string
		pattern string
		rows    *sqlmock.Rows
		call    func(db *DB) error
	}{
		{
			name:    "events",
			pattern: "SELECT .* FROM events",
			rows: sqlmock.NewRows([]string{"id", "user_id", "attribute_id", "time", "value", "value_type", "meta", "created_at"}).
				AddRow(good, good, "not-a-uuid", created, nil, 0, nil, created),
			call: func(db *DB) error {
				_, err := db.ListEvents(uuid.New(), 0)
				return err
			},
		},
		{
			name:    "user logs",
			pattern: "SELECT .* FROM user_logs",
			rows: sqlmock.NewRows([]string{"id", "user_id", "page", "action", "args", "created_at"}).
				AddRow("not-a-uuid", good, "dashboard", "view", nil, created),
			call: func(db *DB) error {
				_, err := db.ListUserLogs(uuid.New(), 0)
				return err
			},
		},
		{
			name:    "profiles",
			pattern: "SELECT .* FROM profiles",
			rows: sqlmock.NewRows([]string{"id", "user_id", "service_id", "enabled", "created_at"}).
				AddRow(good, good, "not-a-uuid", true, created),
			call: func(db *DB) error {
				_, err := db.ListProfiles(uuid.New())
				return err
			},
		},
		{
			name:    "user attribute data",
			pattern: "SELECT .* FROM user_attribute_data",
			rows: sqlmock.NewRows([]string{"id", "user_attribute_id", "day", "value_type", "int_value", "float_value", "string_value", "created_at"}).
				AddRow(good, "not-a-uuid", "2026-01-02", 0, 5, nil, nil, created),
			call: func(db *DB) error {
				_, err := db.ListUserAttributeData(uuid.New(), 0)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			mock.ExpectQuery(tt.pattern).WillReturnRows(tt.rows)

			err := tt.call(db)
			if err == nil {
				t.Fatal("expected an error for a corrupt id")
			}
			if !strings.Contains(err.Error(), "parse") {
				t.Errorf("expected a parse error, got %v", err)
			}
		})
	}
}
