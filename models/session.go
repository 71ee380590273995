package models

import "encoding/json"

// Message roles within a call transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	// RoleSystem marks internal slot annotations. System messages are never
	// spoken to the caller; they are the state machine's scratch memory.
	RoleSystem = "system"
)

// TurnMessage is a single entry in a call's conversation history.
// System entries carry a single-key JSON object in Content, e.g.
// {"vaccine_type":"flu shot"}.
type TurnMessage struct {
	Role    string `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`
}

// Flow states of the booking dialogue. Stored explicitly on the session
// rather than inferred from the wording of the previous prompt.
type FlowState string

const (
	StateIdle               FlowState = "IDLE"
	StateAwaitingVaccine    FlowState = "AWAITING_VACCINE_TYPE"
	StateAwaitingName       FlowState = "AWAITING_PATIENT_NAME"
	StateAwaitingDate       FlowState = "AWAITING_DESIRED_DATE"
	StateAwaitingPostalCode FlowState = "AWAITING_POSTAL_CODE"
)

// Slot keys collected across turns.
const (
	SlotVaccineType = "vaccine_type"
	SlotPatientName = "patient_name"
	SlotDesiredDate = "desired_date"
	SlotPostalCode  = "postal_code"
)

// CallSession is the durable per-call record. One document per call SID;
// created lazily on first access and kept indefinitely as historical record.
type CallSession struct {
	CallSID       string        `bson:"callSid" json:"callSid"`
	History       []TurnMessage `bson:"history" json:"history"`
	State         FlowState     `bson:"state" json:"state"`
	RepromptCount int           `bson:"repromptCount" json:"repromptCount"`
	TurnCount     int           `bson:"turnCount" json:"turnCount"`
	// Revision guards the read-modify-write cycle: Save only succeeds
	// against the revision it loaded.
	Revision int64 `bson:"revision" json:"-"`
}

// SystemNote encodes a single-key slot annotation as a system message.
func SystemNote(key, value string) TurnMessage {
	b, _ := json.Marshal(map[string]string{key: value})
	return TurnMessage{Role: RoleSystem, Content: string(b)}
}

// Slots derives the flat slot mapping by replaying system messages in
// order; a later entry for the same key overrides an earlier one.
func (s *CallSession) Slots() map[string]string {
	slots := make(map[string]string)
	for _, m := range s.History {
		if m.Role != RoleSystem {
			continue
		}
		var kv map[string]string
		if err := json.Unmarshal([]byte(m.Content), &kv); err != nil {
			continue
		}
		for k, v := range kv {
			slots[k] = v
		}
	}
	return slots
}

// RewriteLastSlot replaces the value of the most recent system slot entry,
// scanning the history backward. Returns the slot key that was rewritten,
// or false if no slot annotation exists yet. Corrections two or more slots
// back are deliberately not supported.
func (s *CallSession) RewriteLastSlot(value string) (string, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role != RoleSystem {
			continue
		}
		var kv map[string]string
		if err := json.Unmarshal([]byte(s.History[i].Content), &kv); err != nil {
			continue
		}
		for k := range kv {
			s.History[i] = SystemNote(k, value)
			return k, true
		}
	}
	return "", false
}

// AppendUser appends a caller utterance to the history.
func (s *CallSession) AppendUser(text string) {
	s.History = append(s.History, TurnMessage{Role: RoleUser, Content: text})
}

// AppendAssistant appends a spoken reply to the history.
func (s *CallSession) AppendAssistant(text string) {
	s.History = append(s.History, TurnMessage{Role: RoleAssistant, Content: text})
}
