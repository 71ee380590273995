package handlers

import (
	"net/http"
	"strconv"
	"strings"

	calllogRepo "pharmavoice/database/repository/calllog"
	sessionRepo "pharmavoice/database/repository/session"
	"pharmavoice/models"
	"pharmavoice/services/dialog"
	"pharmavoice/services/speech"
	"pharmavoice/services/telephony"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Finalizer is notified when a call terminates so its analytics can be
// aggregated in the background.
type Finalizer interface {
	EnqueueCallFinalize(callSID string)
}

// VoiceHandler serves the telephony webhooks: one request per caller
// utterance, stitched into a conversation through the session store.
type VoiceHandler struct {
	Sessions   sessionRepo.SessionRepository
	Logs       calllogRepo.CallLogRepository
	Classifier dialog.Classifier
	Engine     *dialog.Engine
	Speech     *speech.Service
	Prompter   *telephony.Prompter
	Tasks      Finalizer
	Logger     *zap.Logger
}

// NewVoiceHandler wires the webhook handler.
func NewVoiceHandler(sessions sessionRepo.SessionRepository, logs calllogRepo.CallLogRepository, classifier dialog.Classifier, engine *dialog.Engine, speechSvc *speech.Service, prompter *telephony.Prompter, tasks Finalizer, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		Sessions:   sessions,
		Logs:       logs,
		Classifier: classifier,
		Engine:     engine,
		Speech:     speechSvc,
		Prompter:   prompter,
		Tasks:      tasks,
		Logger:     logger,
	}
}

// IncomingCall greets the caller and captures call metadata. A missing
// call identifier is the only hard request failure in the voice surface.
func (h *VoiceHandler) IncomingCall(c *gin.Context) {
	var req models.IncomingCallRequest
	if err := c.ShouldBind(&req); err != nil || req.CallSID == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	ctx := c.Request.Context()

	if err := h.Sessions.SaveMetadata(ctx, req.Metadata()); err != nil {
		h.Logger.Error("metadata write lost", zap.String("callSid", req.CallSID), zap.Error(err))
	}

	session, err := h.Sessions.Load(ctx, req.CallSID)
	if err != nil {
		h.Logger.Error("session load failed", zap.String("callSid", req.CallSID), zap.Error(err))
		session = &models.CallSession{CallSID: req.CallSID, State: models.StateIdle}
	}
	if err := h.Sessions.ResetReprompt(ctx, req.CallSID); err != nil {
		h.Logger.Error("reprompt reset lost", zap.String("callSid", req.CallSID), zap.Error(err))
	}

	session.AppendAssistant(dialog.Greeting)
	if err := h.Sessions.Save(ctx, session); err != nil {
		h.Logger.Error("session write lost", zap.String("callSid", req.CallSID), zap.Error(err))
	}

	audioURL, _ := h.Speech.AudioURL(ctx, req.CallSID, "greeting", dialog.Greeting)
	h.respond(c, dialog.Greeting, audioURL, false)
}

// ProcessRecording handles one transcribed utterance: classify, advance
// the state machine, persist, audit, and answer with the next prompt.
func (h *VoiceHandler) ProcessRecording(c *gin.Context) {
	var req models.RecordingRequest
	if err := c.ShouldBind(&req); err != nil || req.CallSID == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	ctx := c.Request.Context()

	confidence := 0.0
	if req.Confidence != "" {
		if parsed, err := strconv.ParseFloat(req.Confidence, 64); err == nil {
			confidence = parsed
		}
	}

	session, err := h.Sessions.Load(ctx, req.CallSID)
	if err != nil {
		h.Logger.Error("session load failed", zap.String("callSid", req.CallSID), zap.Error(err))
		session = &models.CallSession{CallSID: req.CallSID, State: models.StateIdle}
	}

	outcome := h.Classifier.Classify(session, req.SpeechResult, confidence)
	res := h.Engine.Advance(ctx, session, outcome)

	// Counter mutations are applied atomically against the stored value,
	// never through the snapshot write.
	if res.ResetReprompt {
		if err := h.Sessions.ResetReprompt(ctx, req.CallSID); err != nil {
			h.Logger.Error("reprompt reset lost", zap.String("callSid", req.CallSID), zap.Error(err))
		}
	}
	if res.IncrementReprompt {
		if err := h.Sessions.IncrementReprompt(ctx, req.CallSID); err != nil {
			h.Logger.Error("reprompt increment lost", zap.String("callSid", req.CallSID), zap.Error(err))
		}
	}
	if res.SessionDirty {
		if err := h.Sessions.Save(ctx, session); err != nil {
			h.Logger.Error("session write lost", zap.String("callSid", req.CallSID), zap.Error(err))
		}
	}

	h.audit(c, session, req.SpeechResult, res)

	// Silence and low-confidence reprompts are spoken by the provider
	// directly; synthesized audio is reserved for substantive replies.
	audioURL := ""
	if res.SessionDirty {
		audioURL, _ = h.Speech.AudioURL(ctx, req.CallSID, "resp", res.Reply)
	}

	if res.Terminate {
		h.Tasks.EnqueueCallFinalize(req.CallSID)
	}
	h.respond(c, res.Reply, audioURL, res.Terminate)
}

// audit appends the immutable turn record. User text is kept for every
// non-silent turn; the assistant reply only when the turn advanced the
// conversation.
func (h *VoiceHandler) audit(c *gin.Context, session *models.CallSession, rawSpeech string, res dialog.Result) {
	entry := models.CallLogEntry{
		CallSID:      session.CallSID,
		TurnNumber:   session.TurnCount,
		UserText:     strings.TrimSpace(rawSpeech),
		ErrorMessage: res.ErrorLabel,
	}
	if res.SessionDirty {
		entry.AssistantReply = res.Reply
	}
	if _, err := h.Logs.Append(c.Request.Context(), entry); err != nil {
		h.Logger.Error("turn log lost", zap.String("callSid", session.CallSID), zap.Error(err))
	}
}

func (h *VoiceHandler) respond(c *gin.Context, text, audioURL string, terminate bool) {
	xml, err := h.Prompter.Render(text, audioURL, terminate)
	if err != nil {
		h.Logger.Error("twiml render failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(xml))
}
