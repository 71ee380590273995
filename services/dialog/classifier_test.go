package dialog

import (
	"testing"

	"pharmavoice/models"
)

func TestClassifyPrecedence(t *testing.T) {
	c := NewKeywordClassifier()
	session := &models.CallSession{RepromptCount: 2}

	cases := []struct {
		name       string
		utterance  string
		confidence float64
		want       OutcomeKind
	}{
		{"escalation beats confidence", "this is URGENT", 0.1, OutcomeEscalation},
		{"escalation keyword embedded", "I need help immediately please", 0.9, OutcomeEscalation},
		{"empty is silence", "", 0.9, OutcomeSilence},
		{"whitespace is silence", "   \t ", 0.9, OutcomeSilence},
		{"low confidence", "refill please", 0.31, OutcomeLowConfidence},
		{"threshold is inclusive", "refill please", 0.5, OutcomeValid},
		{"valid", "I want a vaccine", 0.9, OutcomeValid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(session, tc.utterance, tc.confidence)
			if got.Kind != tc.want {
				t.Fatalf("Classify(%q, %v) = %s, want %s", tc.utterance, tc.confidence, got.Kind, tc.want)
			}
			if got.RepromptCount != 2 {
				t.Fatalf("expected reprompt count carried through, got %d", got.RepromptCount)
			}
		})
	}
}

func TestClassifyTrimsValidText(t *testing.T) {
	c := NewKeywordClassifier()
	got := c.Classify(&models.CallSession{}, "  flu shot  ", 0.8)
	if got.Kind != OutcomeValid || got.Text != "flu shot" {
		t.Fatalf("got kind=%s text=%q", got.Kind, got.Text)
	}
}

func TestEscalationBeatsSilence(t *testing.T) {
	// Impossible in practice, but the precedence rule must hold: an
	// utterance matching an escalation keyword wins even when it would
	// otherwise trim to nothing.
	c := NewKeywordClassifier()
	got := c.Classify(&models.CallSession{}, "asap", 0.0)
	if got.Kind != OutcomeEscalation {
		t.Fatalf("expected escalation, got %s", got.Kind)
	}
}

func TestIntentPriority(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		text string
		want Intent
	}{
		{"I want a vaccine", IntentVaccine},
		{"can I get a flu SHOT", IntentVaccine},
		{"I need a vaccination appointment", IntentVaccine},
		{"refill my prescription", IntentRefill},
		{"renew my meds", IntentRefill},
		{"what time do you close", IntentHours},
		{"are you open", IntentHours},
		{"where is the nearest pharmacy", IntentNearest},
		{"do you carry ibuprofen", IntentGeneral},
		// Vaccine terms outrank refill terms when both appear.
		{"refill before my vaccine", IntentVaccine},
		// "pharmacy" alone only matches after the earlier groups.
		{"pharmacy hours", IntentHours},
	}
	for _, tc := range cases {
		if got := c.Intent(tc.text); got != tc.want {
			t.Fatalf("Intent(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestCorrection(t *testing.T) {
	cases := []struct {
		text     string
		want     string
		detected bool
	}{
		{"actually make it covid", "make it covid", true},
		{"Actually, next Friday", "next Friday", true},
		{"I mean John Smith", "John Smith", true},
		{"i mean the flu one", "the flu one", true},
		{"I want a vaccine", "", false},
		{"that's factually wrong", "", false},
	}
	for _, tc := range cases {
		got, ok := Correction(tc.text)
		if ok != tc.detected {
			t.Fatalf("Correction(%q) detected=%v, want %v", tc.text, ok, tc.detected)
		}
		if ok && got != tc.want {
			t.Fatalf("Correction(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
