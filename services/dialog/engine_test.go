package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pharmavoice/models"

	"go.uber.org/zap"
)

type fakeBookings struct {
	created []models.Booking
	err     error
}

func (f *fakeBookings) Create(_ context.Context, b models.Booking) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, b)
	return "booking-1", nil
}

type fakeCompleter struct {
	reply string
	err   error
	seen  []models.TurnMessage
}

func (f *fakeCompleter) Complete(_ context.Context, history []models.TurnMessage) (string, error) {
	f.seen = history
	return f.reply, f.err
}

type fakeFinder struct {
	pharmacies []models.Pharmacy
	err        error
	postal     string
}

func (f *fakeFinder) FindByPostalCode(_ context.Context, postalCode string) ([]models.Pharmacy, error) {
	f.postal = postalCode
	return f.pharmacies, f.err
}

func newTestEngine(bookings *fakeBookings, completer *fakeCompleter, finder *fakeFinder) *Engine {
	if bookings == nil {
		bookings = &fakeBookings{}
	}
	if completer == nil {
		completer = &fakeCompleter{reply: "ok"}
	}
	if finder == nil {
		finder = &fakeFinder{}
	}
	return NewEngine(NewKeywordClassifier(), bookings, completer, finder, zap.NewNop())
}

func valid(text string, confidence float64) TurnOutcome {
	return TurnOutcome{Kind: OutcomeValid, Text: text, Confidence: confidence}
}

func newSession(state models.FlowState) *models.CallSession {
	return &models.CallSession{CallSID: "CA123", State: state, History: []models.TurnMessage{}}
}

func TestVaccineIntentOpensFlow(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := newSession(models.StateIdle)

	res := e.Advance(context.Background(), session, valid("I want a vaccine", 0.9))

	if res.Reply != PromptVaccineType {
		t.Fatalf("reply = %q, want vaccine-type prompt", res.Reply)
	}
	if session.State != models.StateAwaitingVaccine {
		t.Fatalf("state = %s, want %s", session.State, models.StateAwaitingVaccine)
	}
	if res.Terminate {
		t.Fatal("call must continue")
	}
	if !res.ResetReprompt {
		t.Fatal("a valid utterance must reset the reprompt counter")
	}
}

func TestVaccineTypeCaptured(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := newSession(models.StateAwaitingVaccine)

	res := e.Advance(context.Background(), session, valid("flu shot", 0.8))

	if res.Reply != PromptPatientName {
		t.Fatalf("reply = %q, want name-request prompt", res.Reply)
	}
	if got := session.Slots()[models.SlotVaccineType]; got != "flu shot" {
		t.Fatalf("vaccine_type = %q, want %q", got, "flu shot")
	}
	if session.State != models.StateAwaitingName {
		t.Fatalf("state = %s, want %s", session.State, models.StateAwaitingName)
	}
}

func TestBookingFinalization(t *testing.T) {
	bookings := &fakeBookings{}
	e := newTestEngine(bookings, nil, nil)
	session := newSession(models.StateAwaitingDate)
	session.History = append(session.History,
		models.SystemNote(models.SlotVaccineType, "flu shot"),
		models.SystemNote(models.SlotPatientName, "Jane Doe"),
	)

	res := e.Advance(context.Background(), session, valid("next Monday", 0.95))

	if len(bookings.created) != 1 {
		t.Fatalf("bookings created = %d, want 1", len(bookings.created))
	}
	b := bookings.created[0]
	if b.VaccineType != "flu shot" || b.PatientName != "Jane Doe" || b.DesiredDate != "next Monday" {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.CallSID != "CA123" {
		t.Fatalf("booking call sid = %q", b.CallSID)
	}
	for _, part := range []string{"flu shot", "Jane Doe", "next Monday"} {
		if !strings.Contains(res.Reply, part) {
			t.Fatalf("confirmation %q missing %q", res.Reply, part)
		}
	}
	if !res.Terminate {
		t.Fatal("booking must terminate the call")
	}
	if res.ErrorLabel != models.LabelVaccineBooked {
		t.Fatalf("label = %q, want %q", res.ErrorLabel, models.LabelVaccineBooked)
	}
}

func TestNoBookingWithMissingSlots(t *testing.T) {
	bookings := &fakeBookings{}
	e := newTestEngine(bookings, nil, nil)
	// Date state reached with a history that lost its earlier slots.
	session := newSession(models.StateAwaitingDate)

	res := e.Advance(context.Background(), session, valid("next Monday", 0.95))

	if len(bookings.created) != 0 {
		t.Fatal("must not book with missing slots")
	}
	if res.Terminate {
		t.Fatal("call must continue and restart the flow")
	}
	if session.State != models.StateAwaitingVaccine {
		t.Fatalf("state = %s, want flow restart", session.State)
	}
}

func TestBookingWriteFailureStaysSilent(t *testing.T) {
	bookings := &fakeBookings{err: errors.New("write lost")}
	e := newTestEngine(bookings, nil, nil)
	session := newSession(models.StateAwaitingDate)
	session.History = append(session.History,
		models.SystemNote(models.SlotVaccineType, "flu shot"),
		models.SystemNote(models.SlotPatientName, "Jane Doe"),
	)

	res := e.Advance(context.Background(), session, valid("next Monday", 0.95))

	if !res.Terminate || !strings.Contains(res.Reply, "booked") {
		t.Fatalf("storage failure must not be spoken; got %q", res.Reply)
	}
}

func TestSilenceReprompt(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	res := e.Advance(context.Background(), newSession(models.StateIdle),
		TurnOutcome{Kind: OutcomeSilence, RepromptCount: 0})

	if res.Reply != SilenceReprompt {
		t.Fatalf("reply = %q, want silence reprompt", res.Reply)
	}
	if !res.IncrementReprompt {
		t.Fatal("silence below the cap must increment the counter")
	}
	if res.Terminate {
		t.Fatal("call must continue")
	}
}

func TestSilenceCapTerminates(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	res := e.Advance(context.Background(), newSession(models.StateIdle),
		TurnOutcome{Kind: OutcomeSilence, RepromptCount: 3})

	if res.Reply != SilenceGoodbye {
		t.Fatalf("reply = %q, want goodbye", res.Reply)
	}
	if !res.Terminate {
		t.Fatal("call must terminate at the silence cap")
	}
	if res.IncrementReprompt {
		t.Fatal("counter must not increment past the cap")
	}
}

func TestSilenceProgression(t *testing.T) {
	// Counter 2 still reprompts; the next silent turn terminates.
	e := newTestEngine(nil, nil, nil)

	res := e.Advance(context.Background(), newSession(models.StateIdle),
		TurnOutcome{Kind: OutcomeSilence, RepromptCount: 2})
	if res.Terminate || !res.IncrementReprompt {
		t.Fatalf("count 2 should reprompt, got %+v", res)
	}

	res = e.Advance(context.Background(), newSession(models.StateIdle),
		TurnOutcome{Kind: OutcomeSilence, RepromptCount: 3})
	if !res.Terminate || res.IncrementReprompt {
		t.Fatalf("count 3 should terminate without incrementing, got %+v", res)
	}
}

func TestLowConfidenceReprompts(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := newSession(models.StateAwaitingName)

	res := e.Advance(context.Background(), session,
		TurnOutcome{Kind: OutcomeLowConfidence, Text: "mumble", Confidence: 0.31})

	if res.Reply != LowConfidenceReprompt {
		t.Fatalf("reply = %q", res.Reply)
	}
	if res.Terminate {
		t.Fatal("low confidence never terminates")
	}
	if res.IncrementReprompt || res.ResetReprompt {
		t.Fatal("low confidence must not touch the silence counter")
	}
	if res.ErrorLabel != "Low confidence (0.31)" {
		t.Fatalf("label = %q", res.ErrorLabel)
	}
	if len(session.History) != 0 {
		t.Fatal("discarded utterance must not enter the history")
	}
	if session.State != models.StateAwaitingName {
		t.Fatal("state must be preserved across a reprompt")
	}
}

func TestEscalationShortCircuits(t *testing.T) {
	for _, state := range []models.FlowState{
		models.StateIdle,
		models.StateAwaitingVaccine,
		models.StateAwaitingName,
		models.StateAwaitingDate,
	} {
		e := newTestEngine(nil, nil, nil)
		session := newSession(state)

		res := e.Advance(context.Background(), session,
			TurnOutcome{Kind: OutcomeEscalation, Text: "this is an emergency", Confidence: 0.99})

		if res.Reply != TransferNotice {
			t.Fatalf("state %s: reply = %q", state, res.Reply)
		}
		if !res.Terminate {
			t.Fatalf("state %s: escalation must terminate", state)
		}
		if res.ErrorLabel != models.LabelEmergencyObserve {
			t.Fatalf("state %s: label = %q", state, res.ErrorLabel)
		}
		if session.State != models.StateIdle {
			t.Fatalf("state %s: pending slots must be abandoned", state)
		}
	}
}

func TestCannedIntents(t *testing.T) {
	e := newTestEngine(nil, nil, nil)

	res := e.Advance(context.Background(), newSession(models.StateIdle), valid("refill my prescription", 0.9))
	if res.Reply != RefillReply {
		t.Fatalf("refill reply = %q", res.Reply)
	}

	session := newSession(models.StateIdle)
	res = e.Advance(context.Background(), session, valid("what are your hours", 0.9))
	if res.Reply != HoursReply {
		t.Fatalf("hours reply = %q", res.Reply)
	}
	if session.State != models.StateIdle {
		t.Fatal("canned intents must leave the session idle")
	}
}

func TestNearestPharmacyFlow(t *testing.T) {
	finder := &fakeFinder{pharmacies: []models.Pharmacy{
		{Name: "Main Street Pharmacy", Address: "1 Main St"},
		{Name: "Corner Drugs", Address: "2 Side Ave"},
	}}
	e := newTestEngine(nil, nil, finder)
	session := newSession(models.StateIdle)

	res := e.Advance(context.Background(), session, valid("where is the nearest pharmacy", 0.9))
	if res.Reply != PromptPostalCode {
		t.Fatalf("reply = %q, want postal-code prompt", res.Reply)
	}
	if session.State != models.StateAwaitingPostalCode {
		t.Fatalf("state = %s", session.State)
	}

	res = e.Advance(context.Background(), session, valid("M5V 2T6", 0.9))
	if finder.postal != "M5V 2T6" {
		t.Fatalf("finder got %q", finder.postal)
	}
	if !strings.Contains(res.Reply, "Main Street Pharmacy") || !strings.Contains(res.Reply, "1 Main St") {
		t.Fatalf("reply %q missing results", res.Reply)
	}
	if got := session.Slots()[models.SlotPostalCode]; got != "M5V 2T6" {
		t.Fatalf("postal_code slot = %q", got)
	}
	if session.State != models.StateIdle {
		t.Fatal("lookup must return the session to idle")
	}
}

func TestNearestPharmacyLookupFailure(t *testing.T) {
	finder := &fakeFinder{err: errors.New("places down")}
	e := newTestEngine(nil, nil, finder)
	session := newSession(models.StateAwaitingPostalCode)

	res := e.Advance(context.Background(), session, valid("M5V 2T6", 0.9))

	if res.Reply != PlacesApology {
		t.Fatalf("reply = %q", res.Reply)
	}
	if res.Terminate {
		t.Fatal("lookup failure must not end the call")
	}
}

func TestGeneralIntentDelegates(t *testing.T) {
	completer := &fakeCompleter{reply: "Yes, we stock that."}
	e := newTestEngine(nil, completer, nil)
	session := newSession(models.StateIdle)

	res := e.Advance(context.Background(), session, valid("do you carry ibuprofen", 0.9))

	if res.Reply != "Yes, we stock that." {
		t.Fatalf("reply = %q", res.Reply)
	}
	if len(completer.seen) == 0 {
		t.Fatal("completer must receive the turn history")
	}
	if session.State != models.StateIdle {
		t.Fatal("general replies keep the session idle")
	}
}

func TestCompletionFailureApologizes(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model timeout")}
	e := newTestEngine(nil, completer, nil)
	session := newSession(models.StateIdle)

	res := e.Advance(context.Background(), session, valid("do you carry ibuprofen", 0.9))

	if res.Reply != CompletionApology {
		t.Fatalf("reply = %q", res.Reply)
	}
	if !strings.Contains(res.ErrorLabel, "model timeout") {
		t.Fatalf("label %q must carry the failure cause", res.ErrorLabel)
	}
	if res.Terminate {
		t.Fatal("completion failure must not end the call")
	}
}

func TestCorrectionRewritesLastSlot(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := newSession(models.StateAwaitingName)
	session.History = append(session.History, models.SystemNote(models.SlotVaccineType, "flu shot"))

	res := e.Advance(context.Background(), session, valid("actually covid booster", 0.9))

	if got := session.Slots()[models.SlotVaccineType]; got != "covid booster" {
		t.Fatalf("vaccine_type = %q, want correction applied", got)
	}
	if !strings.Contains(res.Reply, "covid booster") {
		t.Fatalf("reply %q should confirm the corrected value", res.Reply)
	}
	if !strings.Contains(res.Reply, PromptPatientName) {
		t.Fatalf("reply %q should re-ask the pending prompt", res.Reply)
	}
	if session.State != models.StateAwaitingName {
		t.Fatal("correction must not advance the flow")
	}
}

func TestCorrectionWithoutSlots(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := newSession(models.StateIdle)

	res := e.Advance(context.Background(), session, valid("actually no", 0.9))

	if res.Reply != CorrectionAmbiguous {
		t.Fatalf("reply = %q", res.Reply)
	}
}

func TestValidAlwaysResetsReprompt(t *testing.T) {
	utterances := []string{
		"I want a vaccine",
		"refill my prescription",
		"what are your hours",
		"where is the nearest pharmacy",
		"do you carry ibuprofen",
	}
	for _, text := range utterances {
		e := newTestEngine(nil, nil, nil)
		session := newSession(models.StateIdle)
		session.RepromptCount = 2

		res := e.Advance(context.Background(), session, valid(text, 0.9))
		if !res.ResetReprompt {
			t.Fatalf("%q: valid utterance must reset reprompt counter", text)
		}
	}
}

func TestTurnCountAdvancesOnValidOnly(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := newSession(models.StateIdle)

	e.Advance(context.Background(), session, TurnOutcome{Kind: OutcomeSilence})
	if session.TurnCount != 0 {
		t.Fatal("silence must not advance the turn counter")
	}

	e.Advance(context.Background(), session, valid("what are your hours", 0.9))
	if session.TurnCount != 1 {
		t.Fatalf("turn count = %d, want 1", session.TurnCount)
	}
}
