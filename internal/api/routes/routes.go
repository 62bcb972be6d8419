package routes

import (
	"time"

	_ "channel-chat/docs"
	"channel-chat/internal/api/handlers"
	"channel-chat/internal/api/middleware"
	"channel-chat/internal/config"
	"channel-chat/internal/presence"
	"channel-chat/internal/services"
	"channel-chat/internal/websocket"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the services the HTTP surface exposes.
type Dependencies struct {
	Channels    *services.ChannelService
	Messages    *services.MessageService
	Guard       *services.AccessGuard
	Presence    *presence.Tracker
	Hub         *websocket.Hub
	Gateway     *websocket.Gateway
	RateLimiter middleware.RateLimiter
	DB          handlers.Pinger
}

type Router struct {
	engine         *gin.Engine
	wsHandler      *handlers.WSHandler
	channelHandler *handlers.ChannelHandler
	messageHandler *handlers.MessageHandler
	healthHandler  *handlers.HealthHandler
	rateLimitMW    *middleware.RateLimitMiddleware
	authMW         *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies, cfg *config.Config) *Router {
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	engine.Use(middleware.LogApi())

	return &Router{
		engine:         engine,
		wsHandler:      handlers.NewWSHandler(deps.Gateway, websocket.NewUpgrader(cfg.Server.AllowedOrigins), cfg.Realtime.SendBufferSize),
		channelHandler: handlers.NewChannelHandler(deps.Channels, deps.Guard, deps.Presence),
		messageHandler: handlers.NewMessageHandler(deps.Messages),
		healthHandler:  handlers.NewHealthHandler(deps.Hub, deps.DB),
		rateLimitMW:    middleware.NewRateLimitMiddleware(deps.RateLimiter),
		authMW:         middleware.NewAuthMiddleware(cfg.JWT.Secret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthcheck", r.healthHandler.Healthcheck)
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")
	api.GET("/healthcheck", r.healthHandler.Healthcheck)

	// WebSocket endpoint; browsers pass the token as a query parameter
	api.GET("/ws",
		r.rateLimitMW.RateLimitIP(30, time.Minute),
		r.authMW.RequireWSAuth(),
		r.wsHandler.HandleWebSocket,
	)

	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		channels := auth.Group("/channels")
		channels.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			channels.GET("", r.channelHandler.ListChannels)
			channels.POST("", r.channelHandler.CreateChannel)
			channels.POST("/:id/join", r.channelHandler.JoinChannel)
			channels.POST("/:id/leave", r.channelHandler.LeaveChannel)
			channels.POST("/:id/invite", r.channelHandler.InviteUser)
			channels.GET("/:id/presence", r.channelHandler.GetPresence)
		}

		messages := auth.Group("/messages")
		messages.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			messages.GET("/channel/:id", r.messageHandler.GetChannelMessages)
			messages.GET("/channel/:id/search", r.messageHandler.SearchMessages)
			messages.POST("", r.messageHandler.SendMessage)
			messages.PATCH("/:id", r.messageHandler.EditMessage)
			messages.DELETE("/:id", r.messageHandler.DeleteMessage)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
