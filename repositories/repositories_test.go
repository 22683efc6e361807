package repositories

import (
	"MedOffice/apperrors"
	"MedOffice/models"
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestPaymentRepository_GetForUpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db, nil, zap.NewNop())

	mock.ExpectQuery(`SELECT \* FROM "payment" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUpdate(context.Background(), "pay-1")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_UpdateVersionConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payment" SET .* WHERE version = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payment" WHERE id = \$1`).
		WithArgs("pay-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payment := &models.Payment{ID: "pay-1", State: models.StatePending, Version: 3}
	err := repo.Update(context.Background(), payment)
	assert.True(t, apperrors.IsConflict(err), "%v", err)
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, int64(3), payment.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "payment" WHERE id = \$1`).
		WithArgs("pay-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "pay-1")
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Find(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db, nil, zap.NewNop())

	mock.ExpectQuery(`SELECT \* FROM "payment" WHERE state IN \(\$1,\$2\) AND patient_id = \$3 ORDER BY created_at DESC`).
		WithArgs(models.StatePending, models.StateOverdue, "patient-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "state"}).
			AddRow("pay-1", "patient-1", "Pending").
			AddRow("pay-2", "patient-1", "Overdue"))

	payments, err := repo.Find(context.Background(), models.PaymentFilter{
		States:    []models.PaymentState{models.StatePending, models.StateOverdue},
		PatientID: "patient-1",
	})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.StateOverdue, payments[1].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_NextReceiptNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db, nil, zap.NewNop())

	mock.ExpectQuery(`SELECT 'REC-' \|\| LPAD\(nextval\('payment_receipt_seq'\)::TEXT, 6, '0'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow("REC-000042"))

	number, err := repo.NextReceiptNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "REC-000042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_DeleteWithHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payment" WHERE patient_id = \$1`).
		WithArgs("patient-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "appointment" WHERE patient_id = \$1`).
		WithArgs("patient-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "patient-1")
	assert.True(t, apperrors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
