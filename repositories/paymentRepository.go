package repositories

import (
	"MedOffice/apperrors"
	"MedOffice/cache"
	"MedOffice/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	PaymentCacheExpiry = 10 * time.Minute
)

type PaymentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

// NewPaymentRepository builds the repository; cache may be nil to disable read-through caching.
func NewPaymentRepository(db *gorm.DB, cache *cache.Cache, log *zap.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, cache: cache, log: log}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.Version == 0 {
		payment.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	cacheKey := r.getPaymentCacheKey(id)
	if r.cache != nil {
		var cached models.Payment
		found, err := r.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			r.log.Warn("failed to get payment from cache", zap.String("payment_id", id), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	payment, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey, payment, PaymentCacheExpiry); err != nil {
			r.log.Warn("failed to set payment in cache", zap.String("payment_id", id), zap.Error(err))
		}
	}
	return payment, nil
}

// GetForUpdate always reads the stored row, bypassing the cache, so the version is current.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment %s not found", id)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// Update writes every column of payment if the stored version still matches the one it was read with.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	expected := payment.Version
	payment.Version = expected + 1

	res := r.db.WithContext(ctx).
		Model(payment).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(payment)
	if res.Error != nil {
		payment.Version = expected
		return fmt.Errorf("failed to update payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		payment.Version = expected
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", payment.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check payment: %w", err)
		}
		if count == 0 {
			return apperrors.NotFound("payment %s not found", payment.ID)
		}
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("payment %s was modified concurrently", payment.ID), apperrors.ErrTransient)
	}

	r.invalidate(ctx, payment.ID)
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("payment %s not found", id)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *PaymentRepository) Find(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})
	if len(filter.States) > 0 {
		query = query.Where("state IN ?", filter.States)
	}
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.AppointmentID != "" {
		query = query.Where("appointment_id = ?", filter.AppointmentID)
	}
	if filter.TreatmentGroupID != "" {
		query = query.Where("treatment_group_id = ?", filter.TreatmentGroupID)
	}
	if filter.Method != "" {
		query = query.Where("payment_method = ?", filter.Method)
	}
	if filter.TreatmentType != "" {
		query = query.Where("treatment_type = ?", filter.TreatmentType)
	}
	if filter.PaidFrom != nil {
		query = query.Where("payment_date >= ?", *filter.PaidFrom)
	}
	if filter.PaidTo != nil {
		query = query.Where("payment_date < ?", *filter.PaidTo)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var payments []models.Payment
	if err := query.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// Search matches invoice number, receipt number, observations and transfer reference case-insensitively.
func (r *PaymentRepository) Search(ctx context.Context, term string) ([]models.Payment, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"

	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_number ILIKE ? OR receipt_number ILIKE ? OR observations ILIKE ? OR details->'transfer'->>'reference' ILIKE ?",
			pattern, pattern, pattern, pattern).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search payments: %w", err)
	}
	return payments, nil
}

// FindWithUnsentAlerts returns payments holding at least one alert not yet delivered.
func (r *PaymentRepository) FindWithUnsentAlerts(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("alerts @> ?", `[{"sent": false}]`).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments with pending alerts: %w", err)
	}
	return payments, nil
}

func (r *PaymentRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	return r.nextSequenceValue(ctx, "REC-", "payment_receipt_seq")
}

func (r *PaymentRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	return r.nextSequenceValue(ctx, "INV-", "payment_invoice_seq")
}

func (r *PaymentRepository) nextSequenceValue(ctx context.Context, prefix, sequence string) (string, error) {
	var next string
	query := fmt.Sprintf("SELECT '%s' || LPAD(nextval('%s')::TEXT, 6, '0')", prefix, sequence)
	if err := r.db.WithContext(ctx).Raw(query).Scan(&next).Error; err != nil {
		return "", fmt.Errorf("failed to obtain next %s value: %w", sequence, err)
	}
	return next, nil
}

func (r *PaymentRepository) invalidate(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, r.getPaymentCacheKey(id)); err != nil {
		r.log.Warn("failed to delete payment cache", zap.String("payment_id", id), zap.Error(err))
	}
}

// PurgeCache drops every cached payment. Called at startup after migrations.
func (r *PaymentRepository) PurgeCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.DeleteAll(ctx, "payment_cache:*")
}

func (r *PaymentRepository) getPaymentCacheKey(id string) string {
	return fmt.Sprintf("payment_cache:%s", id)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
