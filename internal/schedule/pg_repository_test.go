package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock, NewPgRepository(mock)
}

func TestHasBookedOverlapQuery(t *testing.T) {
	mock, repo := newMockRepo(t)

	doctorID := uuid.New()
	start := time.Date(2025, 12, 1, 10, 0, 0, 0, time.Local)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(doctorID, start, end, (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	found, err := repo.HasBookedOverlap(context.Background(), doctorID, start, end, nil)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasBookedOverlapExcludesAppointment(t *testing.T) {
	mock, repo := newMockRepo(t)

	doctorID := uuid.New()
	exclude := uuid.New()
	start := time.Date(2025, 12, 1, 10, 0, 0, 0, time.Local)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(doctorID, start, end, &exclude).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	found, err := repo.HasBookedOverlap(context.Background(), doctorID, start, end, &exclude)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppointmentStatusNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(id, StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateAppointmentStatus(context.Background(), id, StatusCancelled)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommits(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(ActionGetSlots, (*uuid.UUID)(nil), (*uuid.UUID)(nil), (*uuid.UUID)(nil), "Checked available slots for 2025-12-01").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.WithTx(context.Background(), func(tx Repository) error {
		return tx.InsertAuditLog(context.Background(), AuditLog{
			ActionType: ActionGetSlots,
			Details:    "Checked available slots for 2025-12-01",
		})
	})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.WithTx(context.Background(), func(tx Repository) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
