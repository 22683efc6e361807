package services

import (
	"MedOffice/apperrors"
	"MedOffice/models"
	"MedOffice/repositories"
	"MedOffice/utils"
	"context"
)

type AppointmentService struct {
	repository *repositories.AppointmentRepository
}

func NewAppointmentService(repository *repositories.AppointmentRepository) *AppointmentService {
	return &AppointmentService{repository: repository}
}

func (s *AppointmentService) Create(ctx context.Context, appointment *models.Appointment) error {
	if err := utils.ValidateAppointment(*appointment); err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid appointment", err)
	}
	return s.repository.Create(ctx, appointment)
}

func (s *AppointmentService) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repository.GetByID(ctx, id)
}

func (s *AppointmentService) GetAllByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return s.repository.GetAllByPatient(ctx, patientID)
}

func (s *AppointmentService) Update(ctx context.Context, appointment *models.Appointment) error {
	if err := utils.ValidateAppointment(*appointment); err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid appointment", err)
	}
	return s.repository.Update(ctx, appointment)
}

func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	return s.repository.Delete(ctx, id)
}
