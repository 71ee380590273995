package models

import "time"

// Audit labels recorded alongside turns.
const (
	LabelSilenceReprompt  = "Silence reprompt"
	LabelSilenceHangup    = "Silence hangup"
	LabelVaccineBooked    = "VACCINE_BOOKED"
	LabelEmergencyObserve = "EMERGENCY_OBSERVED"
)

// CallLogEntry is an append-only audit row for one processed turn. Rows
// are never updated or deleted; they feed the dashboard, not replay.
type CallLogEntry struct {
	ID             string    `bson:"id" json:"id"`
	CallSID        string    `bson:"callSid" json:"call_sid"`
	TurnNumber     int       `bson:"turnNumber" json:"turn_number"`
	UserText       string    `bson:"userText,omitempty" json:"user_text,omitempty"`
	AssistantReply string    `bson:"assistantReply,omitempty" json:"assistant_reply,omitempty"`
	ErrorMessage   string    `bson:"errorMessage,omitempty" json:"error_message,omitempty"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// CallMetadata captures caller-location details from the inbound webhook.
type CallMetadata struct {
	CallSID     string `bson:"callSid" json:"call_sid"`
	FromNumber  string `bson:"fromNumber" json:"from_number"`
	FromCity    string `bson:"fromCity" json:"from_city"`
	FromState   string `bson:"fromState" json:"from_state"`
	FromZip     string `bson:"fromZip" json:"from_zip"`
	FromCountry string `bson:"fromCountry" json:"from_country"`
}

// CallAnalytics is the finalized per-call aggregate the background worker
// writes to Redis once a call terminates.
type CallAnalytics struct {
	CallSID     string    `json:"call_sid"`
	Turns       int       `json:"turns"`
	UserTurns   int       `json:"user_turns"`
	Reprompts   int       `json:"reprompts"`
	Booked      bool      `json:"booked"`
	Escalated   bool      `json:"escalated"`
	FinalizedAt time.Time `json:"finalized_at"`
}
