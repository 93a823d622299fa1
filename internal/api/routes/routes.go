package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/callscribe/callscribe/internal/api/handlers"
	"github.com/callscribe/callscribe/internal/api/middleware"
)

type Deps struct {
	Auth         *handlers.AuthHandler
	Conversation *handlers.ConversationHandler
	Cost         *handlers.CostHandler
	WS           *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/conversations", d.Conversation.Upload)
	auth.GET("/conversations", d.Conversation.List)
	auth.GET("/conversations/:conversation_id", d.Conversation.Get)
	auth.POST("/conversations/:conversation_id/process", d.Conversation.Process)
	auth.GET("/conversations/:conversation_id/progress", d.Conversation.Progress)
	auth.GET("/conversations/:conversation_id/export", d.Conversation.Export)
	auth.PATCH("/conversations/:conversation_id/speakers/:speaker_id", d.Conversation.RenameSpeaker)

	auth.GET("/costs/summary", d.Cost.Summary)
	auth.POST("/costs/estimate", d.Cost.Estimate)
	auth.GET("/costs/projection", d.Cost.Projection)
	auth.POST("/costs/recommend-tier", d.Cost.RecommendTier)

	// WebSocket
	auth.GET("/ws/conversations/:conversation_id/progress", d.WS.ProgressWS)
}
