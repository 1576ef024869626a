package models

import (
	"time"
)

// Patient represents an inpatient record. Patients are created outside this
// application and are read-only here.
type Patient struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
	Contact string `db:"contact" json:"contact"`
}

// Stay represents a patient's room occupancy, joined with its room's class
// and daily rate.
type Stay struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patientId"`
	PatientName string    `db:"patient_name" json:"patientName"`
	RoomID      int64     `db:"room_id" json:"roomId"`
	RoomClass   string    `db:"room_class" json:"roomClass"`
	DailyRate   int64     `db:"daily_rate" json:"dailyRate"`
	CheckIn     time.Time `db:"check_in" json:"checkIn"`
	CheckOut    time.Time `db:"check_out" json:"checkOut"`
}

// RoomClass is a named tier with a fixed daily rate
type RoomClass struct {
	Name      string `json:"name"`
	DailyRate int64  `json:"dailyRate"`
}

// Transaction represents a billing record tied to a patient
type Transaction struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patientId"`
	PatientName string    `db:"patient_name" json:"patientName"` // joined, not stored
	Total       int64     `db:"total" json:"total"`
	Paid        bool      `db:"paid" json:"paid"`
	Date        time.Time `db:"date" json:"date"`
}

// User represents an account of the login flow
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
