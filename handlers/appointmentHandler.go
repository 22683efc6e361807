package handlers

import (
	"MedOffice/middlewares"
	"MedOffice/models"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AppointmentOperations interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetAllByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, id string) error
}

type AppointmentHandler struct {
	service AppointmentOperations
	log     *zap.Logger
}

func NewAppointmentHandler(service AppointmentOperations, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, log: log}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var appointment models.Appointment
	if err := bindJSON(c, &appointment); err != nil {
		middlewares.HttpError(c, h.log, "invalid appointment", err)
		return
	}
	appointment.PatientID = c.Param("patient_id")
	if err := h.service.Create(c.Request.Context(), &appointment); err != nil {
		middlewares.HttpError(c, h.log, "failed to create appointment", err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusCreated)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.service.GetByID(c.Request.Context(), c.Param("appointment_id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to get appointment", err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusOK)
}

func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	appointments, err := h.service.GetAllByPatient(c.Request.Context(), c.Param("patient_id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to list appointments", err)
		return
	}
	middlewares.RespondJSON(c, appointments, http.StatusOK)
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var appointment models.Appointment
	if err := bindJSON(c, &appointment); err != nil {
		middlewares.HttpError(c, h.log, "invalid appointment", err)
		return
	}
	appointment.ID = c.Param("appointment_id")
	if err := h.service.Update(c.Request.Context(), &appointment); err != nil {
		middlewares.HttpError(c, h.log, "failed to update appointment", err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusOK)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("appointment_id")); err != nil {
		middlewares.HttpError(c, h.log, "failed to delete appointment", err)
		return
	}
	c.Status(http.StatusNoContent)
}
