package dialog

import (
	"strings"

	"pharmavoice/models"
)

// Intent is the coarse routing decision for a caller utterance.
type Intent string

const (
	IntentVaccine Intent = "VACCINE"
	IntentRefill  Intent = "REFILL"
	IntentHours   Intent = "HOURS"
	IntentNearest Intent = "NEAREST"
	IntentGeneral Intent = "GENERAL"
)

// OutcomeKind classifies one incoming turn before any intent routing.
type OutcomeKind string

const (
	OutcomeEscalation    OutcomeKind = "ESCALATION"
	OutcomeSilence       OutcomeKind = "SILENCE"
	OutcomeLowConfidence OutcomeKind = "LOW_CONFIDENCE"
	OutcomeValid         OutcomeKind = "VALID"
)

// TurnOutcome is the result of classifying an utterance against the
// current session state.
type TurnOutcome struct {
	Kind OutcomeKind
	// Text is the trimmed utterance, set for Valid outcomes.
	Text string
	// Confidence is the recognizer's score as received.
	Confidence float64
	// RepromptCount carries the session's silence counter at
	// classification time.
	RepromptCount int
}

// Classifier decides how an utterance should be treated. It is an
// interface so the keyword matcher can be swapped without touching the
// state machine.
type Classifier interface {
	Classify(session *models.CallSession, utterance string, confidence float64) TurnOutcome
	Intent(text string) Intent
}

// ConfidenceThreshold below which a non-empty transcription is treated as
// unreliable and discarded.
const ConfidenceThreshold = 0.5

var escalationKeywords = []string{"urgent", "emergency", "immediately", "asap"}

// KeywordClassifier is the production classifier: case-insensitive
// substring matching, first match wins. Deliberately crude — no stemming,
// no negation handling.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the default keyword-based classifier.
func NewKeywordClassifier() Classifier {
	return &KeywordClassifier{}
}

// Classify applies the fixed precedence: escalation > silence > confidence
// > content. An emergency phrase must never be lost to a noisy
// transcription, and an empty utterance must never reach intent matching.
func (c *KeywordClassifier) Classify(session *models.CallSession, utterance string, confidence float64) TurnOutcome {
	reprompts := 0
	if session != nil {
		reprompts = session.RepromptCount
	}
	lower := strings.ToLower(utterance)
	for _, kw := range escalationKeywords {
		if strings.Contains(lower, kw) {
			return TurnOutcome{Kind: OutcomeEscalation, Text: strings.TrimSpace(utterance), Confidence: confidence, RepromptCount: reprompts}
		}
	}
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return TurnOutcome{Kind: OutcomeSilence, Confidence: confidence, RepromptCount: reprompts}
	}
	if confidence < ConfidenceThreshold {
		return TurnOutcome{Kind: OutcomeLowConfidence, Text: trimmed, Confidence: confidence, RepromptCount: reprompts}
	}
	return TurnOutcome{Kind: OutcomeValid, Text: trimmed, Confidence: confidence, RepromptCount: reprompts}
}

// Intent routes a valid utterance by keyword, in fixed priority order.
func (c *KeywordClassifier) Intent(text string) Intent {
	lower := strings.ToLower(text)
	if containsAny(lower, "vaccine", "vaccination", "shot") {
		return IntentVaccine
	}
	if containsAny(lower, "refill", "renew", "prescription") {
		return IntentRefill
	}
	if containsAny(lower, "hour", "open", "close", "time") {
		return IntentHours
	}
	if strings.Contains(lower, "pharmacy") {
		return IntentNearest
	}
	return IntentGeneral
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var correctionMarkers = []string{"actually", "i mean"}

// Correction reports whether an utterance is trying to correct a prior
// slot value, returning the corrected value with the marker stripped.
func Correction(text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, marker := range correctionMarkers {
		if strings.HasPrefix(lower, marker) {
			rest := strings.TrimSpace(text)[len(marker):]
			rest = strings.TrimLeft(rest, " ,.")
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
