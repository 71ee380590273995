package models

// IncomingCallRequest is the form payload of the inbound-call webhook.
type IncomingCallRequest struct {
	CallSID     string `form:"CallSid"`
	From        string `form:"From"`
	FromCity    string `form:"FromCity"`
	FromState   string `form:"FromState"`
	FromZip     string `form:"FromZip"`
	FromCountry string `form:"FromCountry"`
}

// RecordingRequest is the form payload of the per-utterance webhook.
// Confidence arrives as a numeric string and may be absent.
type RecordingRequest struct {
	CallSID      string `form:"CallSid"`
	SpeechResult string `form:"SpeechResult"`
	Confidence   string `form:"Confidence"`
}

// Metadata returns the caller metadata carried on the inbound webhook.
func (r *IncomingCallRequest) Metadata() CallMetadata {
	return CallMetadata{
		CallSID:     r.CallSID,
		FromNumber:  r.From,
		FromCity:    r.FromCity,
		FromState:   r.FromState,
		FromZip:     r.FromZip,
		FromCountry: r.FromCountry,
	}
}
