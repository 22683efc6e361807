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
	AppointmentCacheExpiry = 24 * time.Hour
)

type AppointmentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

func NewAppointmentRepository(db *gorm.DB, cache *cache.Cache, log *zap.Logger) *AppointmentRepository {
	return &AppointmentRepository{db: db, cache: cache, log: log}
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.Status == "" {
		appointment.Status = "scheduled"
	}
	if !models.ValidAppointmentStatus(appointment.Status) {
		return apperrors.InvalidArgument("invalid status value %q", appointment.Status)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Patient{}).Where("id = ?", appointment.PatientID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to find patient: %w", err)
	}
	if count == 0 {
		return apperrors.NotFound("patient %s not found", appointment.PatientID)
	}

	appointment.ID = uuid.New().String()
	if err := r.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetByID returns the appointment, serving repeated lookups from the cache.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getAppointmentCacheKey(id)
	if r.cache != nil {
		var cached models.Appointment
		if found, err := r.cache.GetJSON(ctx, cacheKey, &cached); err != nil {
			r.log.Warn("failed to get appointment from cache", zap.String("appointment_id", id), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	var appointment models.Appointment
	err := r.db.WithContext(ctx).First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("appointment %s not found", id)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey, appointment, AppointmentCacheExpiry); err != nil {
			r.log.Warn("failed to set appointment in cache", zap.String("appointment_id", id), zap.Error(err))
		}
	}
	return &appointment, nil
}

func (r *AppointmentRepository) GetAllByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC, time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	if !models.ValidAppointmentStatus(appointment.Status) {
		return apperrors.InvalidArgument("invalid status value %q", appointment.Status)
	}

	res := r.db.WithContext(ctx).
		Model(appointment).
		Select("date", "time", "consultation_type", "status").
		Updates(appointment)
	if res.Error != nil {
		return fmt.Errorf("failed to update appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("appointment %s not found", appointment.ID)
	}
	r.invalidate(ctx, appointment.ID)
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Payment{}).Where("appointment_id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check appointment payments: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("appointment %s has %d payments", id, count)
	}

	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("appointment %s not found", id)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *AppointmentRepository) invalidate(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, r.getAppointmentCacheKey(id)); err != nil {
		r.log.Warn("failed to delete appointment cache", zap.String("appointment_id", id), zap.Error(err))
	}
}

func (r *AppointmentRepository) getAppointmentCacheKey(id string) string {
	return fmt.Sprintf("appointment_cache:%s", id)
}
