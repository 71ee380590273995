package models

import "time"

// Booking is an immutable vaccine appointment record, created exactly once
// per completed slot-filling flow.
type Booking struct {
	ID          string    `bson:"id" json:"id"`
	CallSID     string    `bson:"callSid" json:"callSid"`
	VaccineType string    `bson:"vaccineType" json:"vaccineType"`
	PatientName string    `bson:"patientName" json:"patientName"`
	DesiredDate string    `bson:"desiredDate" json:"desiredDate"`
	BookedAt    time.Time `bson:"bookedAt" json:"bookedAt"`
}
