package repository

import (
    "context"
    "testing"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestRevokeAllForUser(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    defer db.Close()

    mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
        WithArgs(uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 3))

    repo := NewTokenRepo(db)
    if err := repo.RevokeAllForUser(context.Background(), 7); err != nil {
        t.Fatalf("RevokeAllForUser: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}
