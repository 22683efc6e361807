package controllers

import (
	"MedOffice/handlers"

	"github.com/gin-gonic/gin"
)

func SetupPatientRoutes(router gin.IRouter, patientHandler *handlers.PatientHandler, appointmentHandler *handlers.AppointmentHandler) {
	router.POST("/patients", patientHandler.CreatePatient)
	router.GET("/patients", patientHandler.GetAllPatients)
	router.GET("/patients/:patient_id", patientHandler.GetPatientByID)
	router.PUT("/patients/:patient_id", patientHandler.UpdatePatient)
	router.DELETE("/patients/:patient_id", patientHandler.DeletePatient)

	router.POST("/patients/:patient_id/appointments", appointmentHandler.CreateAppointment)
	router.GET("/patients/:patient_id/appointments", appointmentHandler.GetAllAppointments)
	router.GET("/appointments/:appointment_id", appointmentHandler.GetAppointmentByID)
	router.PUT("/appointments/:appointment_id", appointmentHandler.UpdateAppointment)
	router.DELETE("/appointments/:appointment_id", appointmentHandler.DeleteAppointment)
}
