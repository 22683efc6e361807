package handlers

import (
	"MedOffice/middlewares"
	"MedOffice/models"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PatientOperations interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetAll(ctx context.Context) ([]models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id string) error
}

type PatientHandler struct {
	service PatientOperations
	log     *zap.Logger
}

func NewPatientHandler(service PatientOperations, log *zap.Logger) *PatientHandler {
	return &PatientHandler{service: service, log: log}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var patient models.Patient
	if err := bindJSON(c, &patient); err != nil {
		middlewares.HttpError(c, h.log, "invalid patient", err)
		return
	}
	if err := h.service.Create(c.Request.Context(), &patient); err != nil {
		middlewares.HttpError(c, h.log, "failed to create patient", err)
		return
	}
	middlewares.RespondJSON(c, patient, http.StatusCreated)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.service.GetByID(c.Request.Context(), c.Param("patient_id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to get patient", err)
		return
	}
	middlewares.RespondJSON(c, patient, http.StatusOK)
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	patients, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to list patients", err)
		return
	}
	middlewares.RespondJSON(c, patients, http.StatusOK)
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var patient models.Patient
	if err := bindJSON(c, &patient); err != nil {
		middlewares.HttpError(c, h.log, "invalid patient", err)
		return
	}
	patient.ID = c.Param("patient_id")
	if err := h.service.Update(c.Request.Context(), &patient); err != nil {
		middlewares.HttpError(c, h.log, "failed to update patient", err)
		return
	}
	middlewares.RespondJSON(c, patient, http.StatusOK)
}

func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("patient_id")); err != nil {
		middlewares.HttpError(c, h.log, "failed to delete patient", err)
		return
	}
	c.Status(http.StatusNoContent)
}
