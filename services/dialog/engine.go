package dialog

import (
	"context"
	"fmt"
	"strconv"

	"pharmavoice/models"

	"go.uber.org/zap"
)

// Completer generates a fallback reply from the turn history. The
// implementation prepends its own priming prefix.
type Completer interface {
	Complete(ctx context.Context, history []models.TurnMessage) (string, error)
}

// PharmacyFinder resolves a postal code to nearby pharmacies.
type PharmacyFinder interface {
	FindByPostalCode(ctx context.Context, postalCode string) ([]models.Pharmacy, error)
}

// BookingCreator persists a completed appointment.
type BookingCreator interface {
	Create(ctx context.Context, booking models.Booking) (string, error)
}

// Result is the state machine's decision for one turn. Counter mutations
// are expressed as flags so the store can apply them atomically against
// the value it holds.
type Result struct {
	Reply     string
	Terminate bool
	// ErrorLabel annotates the audit row ("Silence reprompt",
	// "Low confidence (0.31)", "VACCINE_BOOKED", ...). Empty for a plain turn.
	ErrorLabel string
	// SessionDirty signals that history/state changed and must be saved.
	SessionDirty      bool
	IncrementReprompt bool
	ResetReprompt     bool
	Booked            bool
	Escalated         bool
}

// Engine advances the dialogue one turn at a time. It works on a loaded
// session snapshot, never shared mutable state; the caller persists the
// snapshot afterwards.
type Engine struct {
	Classifier Classifier
	Bookings   BookingCreator
	Completer  Completer
	Finder     PharmacyFinder
	Logger     *zap.Logger
}

// NewEngine wires the state machine with its collaborators.
func NewEngine(classifier Classifier, bookings BookingCreator, completer Completer, finder PharmacyFinder, logger *zap.Logger) *Engine {
	return &Engine{
		Classifier: classifier,
		Bookings:   bookings,
		Completer:  completer,
		Finder:     finder,
		Logger:     logger,
	}
}

// Silence reprompts allowed before the call is ended.
const maxReprompts = 3

// Advance applies one classified utterance to the session and decides the
// next reply. It mutates only the passed snapshot.
func (e *Engine) Advance(ctx context.Context, session *models.CallSession, outcome TurnOutcome) Result {
	switch outcome.Kind {
	case OutcomeEscalation:
		return e.escalate(session)
	case OutcomeSilence:
		return e.silence(outcome)
	case OutcomeLowConfidence:
		return Result{
			Reply:      LowConfidenceReprompt,
			ErrorLabel: fmt.Sprintf("Low confidence (%s)", strconv.FormatFloat(outcome.Confidence, 'g', -1, 64)),
		}
	case OutcomeValid:
		return e.valid(ctx, session, outcome)
	}
	// Unreachable with a well-behaved classifier.
	return Result{Reply: LowConfidenceReprompt}
}

// escalate short-circuits any active flow: pending slots are abandoned and
// the call hands off to a human.
func (e *Engine) escalate(session *models.CallSession) Result {
	session.AppendAssistant(TransferNotice)
	session.State = models.StateIdle
	return Result{
		Reply:        TransferNotice,
		Terminate:    true,
		ErrorLabel:   models.LabelEmergencyObserve,
		SessionDirty: true,
		Escalated:    true,
	}
}

// silence reprompts up to the cap, then says goodbye. The counter is not
// touched on the terminating turn.
func (e *Engine) silence(outcome TurnOutcome) Result {
	if outcome.RepromptCount < maxReprompts {
		return Result{
			Reply:             SilenceReprompt,
			ErrorLabel:        models.LabelSilenceReprompt,
			IncrementReprompt: true,
		}
	}
	return Result{
		Reply:      SilenceGoodbye,
		Terminate:  true,
		ErrorLabel: models.LabelSilenceHangup,
	}
}

func (e *Engine) valid(ctx context.Context, session *models.CallSession, outcome TurnOutcome) Result {
	text := outcome.Text
	session.AppendUser(text)
	session.TurnCount++

	res := e.respond(ctx, session, text)
	// A usable utterance always clears the silence counter, whichever
	// branch handled it.
	res.ResetReprompt = true
	res.SessionDirty = true
	session.AppendAssistant(res.Reply)
	return res
}

func (e *Engine) respond(ctx context.Context, session *models.CallSession, text string) Result {
	if corrected, ok := Correction(text); ok {
		return e.correct(session, corrected)
	}

	switch session.State {
	case models.StateAwaitingVaccine:
		session.History = append(session.History, models.SystemNote(models.SlotVaccineType, text))
		session.State = models.StateAwaitingName
		return Result{Reply: PromptPatientName}

	case models.StateAwaitingName:
		session.History = append(session.History, models.SystemNote(models.SlotPatientName, text))
		session.State = models.StateAwaitingDate
		return Result{Reply: PromptDesiredDate}

	case models.StateAwaitingDate:
		session.History = append(session.History, models.SystemNote(models.SlotDesiredDate, text))
		return e.book(ctx, session)

	case models.StateAwaitingPostalCode:
		session.History = append(session.History, models.SystemNote(models.SlotPostalCode, text))
		session.State = models.StateIdle
		return e.nearest(ctx, text)
	}

	return e.dispatch(ctx, session, text)
}

// correct rewrites only the most recent slot annotation. Corrections
// reaching further back are not supported.
func (e *Engine) correct(session *models.CallSession, corrected string) Result {
	if corrected == "" {
		return Result{Reply: CorrectionAmbiguous}
	}
	key, ok := session.RewriteLastSlot(corrected)
	if !ok {
		return Result{Reply: CorrectionAmbiguous}
	}
	reply := fmt.Sprintf("Understood, I've updated that to %s.", corrected)
	if follow := e.statePrompt(session.State); follow != "" {
		reply += " " + follow
	}
	e.Logger.Debug("slot corrected",
		zap.String("callSid", session.CallSID),
		zap.String("slot", key))
	return Result{Reply: reply}
}

// statePrompt re-asks the question the current state is waiting on.
func (e *Engine) statePrompt(state models.FlowState) string {
	switch state {
	case models.StateAwaitingVaccine:
		return PromptVaccineType
	case models.StateAwaitingName:
		return PromptPatientName
	case models.StateAwaitingDate:
		return PromptDesiredDate
	case models.StateAwaitingPostalCode:
		return PromptPostalCode
	}
	return ""
}

// book finalizes the flow once all three slots are present, creating the
// booking and ending the call.
func (e *Engine) book(ctx context.Context, session *models.CallSession) Result {
	slots := session.Slots()
	vaccine, okV := slots[models.SlotVaccineType]
	name, okN := slots[models.SlotPatientName]
	date, okD := slots[models.SlotDesiredDate]
	if !okV || !okN || !okD {
		// Should not happen with an intact history; restart the flow
		// rather than booking with holes.
		session.State = models.StateAwaitingVaccine
		return Result{Reply: PromptVaccineType}
	}

	session.State = models.StateIdle
	if _, err := e.Bookings.Create(ctx, models.Booking{
		CallSID:     session.CallSID,
		VaccineType: vaccine,
		PatientName: name,
		DesiredDate: date,
	}); err != nil {
		// Availability over durability: the caller keeps their
		// confirmation, operators get the failure.
		e.Logger.Error("booking write failed",
			zap.String("callSid", session.CallSID),
			zap.Error(err))
	}

	reply := fmt.Sprintf("Thank you. Your %s appointment for %s on %s is booked. Goodbye.", vaccine, name, date)
	return Result{
		Reply:      reply,
		Terminate:  true,
		ErrorLabel: models.LabelVaccineBooked,
		Booked:     true,
	}
}

// nearest hands the postal code to the places collaborator and speaks the
// results, degrading to an apology on failure.
func (e *Engine) nearest(ctx context.Context, postalCode string) Result {
	pharmacies, err := e.Finder.FindByPostalCode(ctx, postalCode)
	if err != nil {
		e.Logger.Warn("pharmacy lookup failed", zap.String("postalCode", postalCode), zap.Error(err))
		return Result{Reply: PlacesApology, ErrorLabel: fmt.Sprintf("Places lookup failed: %v", err)}
	}
	if len(pharmacies) == 0 {
		return Result{Reply: NoPharmaciesReply}
	}
	reply := "Here are the nearest pharmacies. "
	for i, p := range pharmacies {
		if i >= 3 {
			break
		}
		reply += fmt.Sprintf("%s, at %s. ", p.Name, p.Address)
	}
	reply += "Anything else I can help you with?"
	return Result{Reply: reply}
}

// dispatch routes a fresh utterance by intent when no flow is active.
func (e *Engine) dispatch(ctx context.Context, session *models.CallSession, text string) Result {
	switch e.Classifier.Intent(text) {
	case IntentVaccine:
		session.State = models.StateAwaitingVaccine
		return Result{Reply: PromptVaccineType}
	case IntentRefill:
		return Result{Reply: RefillReply}
	case IntentHours:
		return Result{Reply: HoursReply}
	case IntentNearest:
		session.State = models.StateAwaitingPostalCode
		return Result{Reply: PromptPostalCode}
	}

	reply, err := e.Completer.Complete(ctx, session.History)
	if err != nil {
		e.Logger.Warn("completion failed", zap.String("callSid", session.CallSID), zap.Error(err))
		return Result{Reply: CompletionApology, ErrorLabel: fmt.Sprintf("Completion failed: %v", err)}
	}
	return Result{Reply: reply}
}
