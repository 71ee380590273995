package handlers

import (
	"net/http"
	"strconv"

	"pharmavoice/cron"
	bookingRepo "pharmavoice/database/repository/booking"
	calllogRepo "pharmavoice/database/repository/calllog"
	sessionRepo "pharmavoice/database/repository/session"
	"pharmavoice/models"
	"pharmavoice/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AnalyticsHandler exposes the turn log and session history for external
// dashboards. Read-only; no core logic.
type AnalyticsHandler struct {
	Sessions  sessionRepo.SessionRepository
	Bookings  bookingRepo.BookingRepository
	Logs      calllogRepo.CallLogRepository
	Analytics *redis.Client
	Logger    *zap.Logger
}

// NewAnalyticsHandler wires the read-only dashboard endpoints.
func NewAnalyticsHandler(sessions sessionRepo.SessionRepository, bookings bookingRepo.BookingRepository, logs calllogRepo.CallLogRepository, analytics *redis.Client, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		Sessions:  sessions,
		Bookings:  bookings,
		Logs:      logs,
		Analytics: analytics,
		Logger:    logger,
	}
}

type enrichedLog struct {
	models.CallLogEntry
	Transcript []models.TurnMessage `json:"transcript"`
	Booking    *models.Booking      `json:"booking"`
	Metadata   *models.CallMetadata `json:"metadata"`
}

// GetLogs returns recent audit rows enriched with transcript, booking, and
// caller metadata.
func (h *AnalyticsHandler) GetLogs(c *gin.Context) {
	limit := int64(100)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	ctx := c.Request.Context()

	entries, err := h.Logs.Recent(ctx, limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch logs", err.Error())
		return
	}

	logs := make([]enrichedLog, 0, len(entries))
	for _, entry := range entries {
		enriched := enrichedLog{CallLogEntry: entry, Transcript: []models.TurnMessage{}}

		if session, err := h.Sessions.Get(ctx, entry.CallSID); err == nil && session != nil {
			enriched.Transcript = session.History
		}
		if booking, err := h.Bookings.GetByCallSID(ctx, entry.CallSID); err == nil {
			enriched.Booking = booking
		}
		if meta, err := h.Sessions.GetMetadata(ctx, entry.CallSID); err == nil {
			enriched.Metadata = meta
		}
		logs = append(logs, enriched)
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ListCalls returns every known call identifier.
func (h *AnalyticsHandler) ListCalls(c *gin.Context) {
	sids, err := h.Sessions.ListCallSIDs(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list calls", err.Error())
		return
	}
	if sids == nil {
		sids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"call_sids": sids})
}

// GetConversation returns the full history of one call.
func (h *AnalyticsHandler) GetConversation(c *gin.Context) {
	callSID := c.Param("callSid")
	session, err := h.Sessions.Get(c.Request.Context(), callSID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch conversation", err.Error())
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "CallSid not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_sid": callSID, "messages": session.History})
}

// GetCallAnalytics returns the finalized aggregate for one call.
func (h *AnalyticsHandler) GetCallAnalytics(c *gin.Context) {
	callSID := c.Param("callSid")
	agg, err := cron.GetCallAnalytics(c.Request.Context(), h.Analytics, callSID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch analytics", err.Error())
		return
	}
	if agg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "call not finalized"})
		return
	}
	c.JSON(http.StatusOK, agg)
}
