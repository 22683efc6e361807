package repositories

import (
	"MedOffice/apperrors"
	"MedOffice/cache"
	"MedOffice/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	PatientCacheExpiry = 24 * time.Hour
)

type PatientRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

func NewPatientRepository(db *gorm.DB, cache *cache.Cache, log *zap.Logger) *PatientRepository {
	return &PatientRepository{db: db, cache: cache, log: log}
}

func (r *PatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	// Check if a record with the same identifying fields already exists
	if patient.DocumentID != "" {
		var existing models.Patient
		err := r.db.WithContext(ctx).Where("document_id = ?", patient.DocumentID).First(&existing).Error
		if err == nil {
			return apperrors.Conflict("patient with document %s already exists", patient.DocumentID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for existing patient: %w", err)
		}
	}

	patient.ID = uuid.New().String()
	if err := r.db.WithContext(ctx).Create(patient).Error; err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getPatientCacheKey(id)
	if r.cache != nil {
		var cached models.Patient
		if found, err := r.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			r.log.Warn("failed to get patient from cache", zap.String("patient_id", id), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	var patient models.Patient
	err := r.db.WithContext(ctx).First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("patient %s not found", id)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey, patient, PatientCacheExpiry); err != nil {
			r.log.Warn("failed to set patient in cache", zap.String("patient_id", id), zap.Error(err))
		}
	}
	return &patient, nil
}

func (r *PatientRepository) GetAll(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to get all patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) Update(ctx context.Context, patient *models.Patient) error {
	res := r.db.WithContext(ctx).
		Model(patient).
		Select("first_name", "last_name", "document_id", "date_of_birth", "phone", "email", "address").
		Updates(patient)
	if res.Error != nil {
		return fmt.Errorf("failed to update patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("patient %s not found", patient.ID)
	}
	r.invalidate(ctx, patient.ID)
	return nil
}

// Delete refuses to remove a patient that still has appointments or payments.
func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payments, appointments int64
		if err := tx.Model(&models.Payment{}).Where("patient_id = ?", id).Count(&payments).Error; err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		if err := tx.Model(&models.Appointment{}).Where("patient_id = ?", id).Count(&appointments).Error; err != nil {
			return fmt.Errorf("failed to count appointments: %w", err)
		}
		if payments > 0 || appointments > 0 {
			return apperrors.Conflict("patient %s has %d appointments and %d payments", id, appointments, payments)
		}

		res := tx.Delete(&models.Patient{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete patient: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("patient %s not found", id)
		}
		r.invalidate(ctx, id)
		return nil
	})
}

func (r *PatientRepository) invalidate(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, r.getPatientCacheKey(id)); err != nil {
		r.log.Warn("failed to delete patient cache", zap.String("patient_id", id), zap.Error(err))
	}
}

func (r *PatientRepository) getPatientCacheKey(patientID string) string {
	return fmt.Sprintf("patient_cache:%s", patientID)
}
