package sync

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestPostgresDestination_Write(t *testing.T) {
	db, mock := newMockDB(t)
	dest := &PostgresDestination{db: db}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data := []byte(`{"version":"1","type":"header","timestamp":"2026-03-01T12:00:00Z","owner":"2vxsx-fae","land_count":2,"balance":10.5}` + "\n")

	mock.ExpectExec("INSERT INTO portfolio_exports").
		WithArgs("2vxsx-fae", 2, 10.5, at, string(data)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestPostgresDestination_WriteError(t *testing.T) {
	db, mock := newMockDB(t)
	dest := &PostgresDestination{db: db}

	mock.ExpectExec("INSERT INTO portfolio_exports").
		WillReturnError(errors.New("relation does not exist"))

	err := dest.Write(context.Background(), []byte(`{"type":"header","owner":"2vxsx-fae"}`+"\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresDestination_WriteRejectsNonExport(t *testing.T) {
	db, _ := newMockDB(t)
	dest := &PostgresDestination{db: db}

	// No expectations: nothing may reach the database.
	if err := dest.Write(context.Background(), []byte(`{"type":"land"}`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresDestination_Latest(t *testing.T) {
	db, mock := newMockDB(t)
	dest := &PostgresDestination{db: db}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT payload, exported_at FROM portfolio_exports").
		WithArgs("2vxsx-fae").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "exported_at"}).
			AddRow(`{"type":"header"}`, at))

	payload, gotAt, err := dest.Latest(context.Background(), "2vxsx-fae")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if string(payload) != `{"type":"header"}` {
		t.Errorf("payload = %q", payload)
	}
	if !gotAt.Equal(at) {
		t.Errorf("exported_at = %v, want %v", gotAt, at)
	}
}

func TestPostgresDestination_LatestNone(t *testing.T) {
	db, mock := newMockDB(t)
	dest := &PostgresDestination{db: db}

	mock.ExpectQuery("SELECT payload, exported_at FROM portfolio_exports").
		WithArgs("aaaaa-aa").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "exported_at"}))

	if _, _, err := dest.Latest(context.Background(), "aaaaa-aa"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Latest error = %v, want sql.ErrNoRows", err)
	}
}

func TestPostgresDestination_Close(t *testing.T) {
	db, mock := newMockDB(t)
	dest := &PostgresDestination{db: db}
	mock.ExpectClose()
	if err := dest.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
