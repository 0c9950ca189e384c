package router

import (
	"backend/internal/app/assistant"
	"backend/internal/app/conversation"
	"backend/internal/app/health"
	"backend/internal/app/media"
	"backend/internal/app/message"
	"backend/internal/app/reaction"
	"backend/internal/gateways/websocket"
	"backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(logger *zap.Logger) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())
	return &Router{Engine: engine}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterWebSocketRoutes(hub *websocket.Hub) {
	websocket.RegisterRoutes(r.Engine, hub)
}

func (r *Router) RegisterConversationRoutes(handler conversation.Handler) {
	conversation.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterMessageRoutes(handler message.Handler) {
	message.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterReactionRoutes(handler reaction.Handler) {
	reaction.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterAssistantRoutes(handler assistant.Handler) {
	assistant.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterMediaRoutes(handler media.Handler) {
	media.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
