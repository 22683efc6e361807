package models

import (
	"time"
)

// Patient model
type Patient struct {
	ID           string        `gorm:"primaryKey;column:id" json:"id"`
	FirstName    string        `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string        `gorm:"column:last_name;not null;index" json:"last_name"`
	DocumentID   string        `gorm:"column:document_id;index" json:"document_id"`
	DateOfBirth  string        `gorm:"column:date_of_birth" json:"date_of_birth"`
	Phone        string        `gorm:"column:phone" json:"phone"`
	Email        string        `gorm:"column:email" json:"email"`
	Address      string        `gorm:"column:address" json:"address"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Appointments []Appointment `gorm:"foreignKey:PatientID;references:ID" json:"-"`
	Payments     []Payment     `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (Patient) TableName() string {
	return "patient"
}

// FullName returns the name used in notification messages.
func (p Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Appointment model
type Appointment struct {
	ID               string    `gorm:"primaryKey;column:id" json:"id"`
	PatientID        string    `gorm:"column:patient_id;not null;index" json:"patient_id"`
	Date             string    `gorm:"column:date;not null;index" json:"date"`
	Time             string    `gorm:"column:time;not null" json:"time"`
	ConsultationType string    `gorm:"column:consultation_type" json:"consultation_type"`
	Status           string    `gorm:"column:status;check:status IN ('scheduled', 'fulfilled', 'cancelled');not null" json:"status"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Patient          Patient   `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (Appointment) TableName() string {
	return "appointment"
}

// ValidAppointmentStatus reports whether s is one of the stored appointment statuses.
func ValidAppointmentStatus(s string) bool {
	return s == "scheduled" || s == "fulfilled" || s == "cancelled"
}
