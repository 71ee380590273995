package routes

import (
	"net/http"
	"time"

	"pharmavoice/config"
	"pharmavoice/handlers"
	"pharmavoice/middleware"
	"pharmavoice/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterVoiceRoutes registers the telephony webhooks. These answer with
// voice-prompt markup, not JSON, and are guarded by signature validation.
func RegisterVoiceRoutes(r *gin.Engine, vh *handlers.VoiceHandler) {
	voice := r.Group("/voice")
	{
		voice.Use(middleware.TwilioSignatureMiddleware())
		voice.POST("/incoming", vh.IncomingCall)
		voice.POST("/recording", vh.ProcessRecording)
	}
}

// RegisterAnalyticsRoutes registers the read-only dashboard API.
func RegisterAnalyticsRoutes(r *gin.Engine, ah *handlers.AnalyticsHandler) {
	api := r.Group("/api")
	{
		api.GET("/logs", ah.GetLogs)
		api.GET("/calls", ah.ListCalls)
		api.GET("/conversations/:callSid", ah.GetConversation)
		api.GET("/analytics/:callSid", ah.GetCallAnalytics)
	}
}

// RegisterStaticRoutes serves synthesized audio in local audio-store mode.
func RegisterStaticRoutes(r *gin.Engine) {
	if config.AppConfig.AudioStore == "local" {
		r.Static("/static", config.AppConfig.StaticDir)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})
}

// CORSConfig allows the dashboard to be served from any origin.
func CORSConfig() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	})
}
