package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"wellness-progression/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestServerProceduresRecordPointsTransaction(t *testing.T) {
	db, mock := newMockPostgres(t)
	p := NewServerProcedures(time.UTC)

	ref := "challenge-1"
	refType := models.RefChallenge
	mock.ExpectQuery(regexp.QuoteMeta("SELECT record_points_transaction(")).
		WithArgs("u1", int64(50), "earn", "completed challenge", &ref, &refType, nil).
		WillReturnRows(sqlmock.NewRows([]string{"record_points_transaction"}).AddRow("tx-123"))

	id, err := p.RecordPointsTransaction(context.Background(), db, PointsTransactionParams{
		UserID: "u1", Points: 50, Type: models.TransactionEarn, Reason: "completed challenge",
		ReferenceID: &ref, ReferenceType: &refType,
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-123", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServerProceduresValidateBeforeCalling(t *testing.T) {
	db, mock := newMockPostgres(t)
	p := NewServerProcedures(time.UTC)

	_, err := p.RecordPointsTransaction(context.Background(), db, PointsTransactionParams{
		UserID: "u1", Points: 10, Type: models.TransactionSpend,
	})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServerProceduresStreaks(t *testing.T) {
	db, mock := newMockPostgres(t)
	p := NewServerProcedures(time.UTC)
	p.Now = func() time.Time { return time.Date(2026, 5, 2, 23, 0, 0, 0, time.UTC) }

	mock.ExpectQuery(regexp.QuoteMeta("SELECT update_user_streak(")).
		WithArgs("u1", models.StreakDailyLog, "2026-05-02", "UTC").
		WillReturnRows(sqlmock.NewRows([]string{"update_user_streak"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT get_user_streak(")).
		WithArgs("u1", models.StreakDailyLog, "2026-05-02", "UTC").
		WillReturnRows(sqlmock.NewRows([]string{"get_user_streak"}).AddRow(6))

	advanced, err := p.UpdateUserStreak(context.Background(), db, "u1", models.StreakDailyLog)
	require.NoError(t, err)
	assert.True(t, advanced)

	current, err := p.GetUserStreak(context.Background(), db, "u1", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 6, current)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallServerProceduresRunsEachStatement(t *testing.T) {
	db, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE FUNCTION record_points_transaction")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE FUNCTION get_user_streak")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE FUNCTION update_user_streak")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, InstallServerProcedures(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
