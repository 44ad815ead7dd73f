package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"gigchat/internal/infra/config"
	"gigchat/internal/infra/obs"
)

// ChatHTTP exposes conversation endpoints.
type ChatHTTP interface {
	CreateConversation(c *gin.Context)
	ListMessages(c *gin.Context)
}

// OfferHTTP exposes offer create/update endpoints.
type OfferHTTP interface {
	Create(c *gin.Context)
	Update(c *gin.Context)
}

// AttachmentHTTP exposes the multipart attachment upload endpoint.
type AttachmentHTTP interface {
	Upload(c *gin.Context)
}

// Handlers wires the HTTP surface. Nil groups are simply not routed.
type Handlers struct {
	Chat        ChatHTTP
	Offers      OfferHTTP
	Attachments AttachmentHTTP
	WS          gin.HandlerFunc
}

// NewServer assembles the router with observability middleware, CORS,
// health endpoints, the websocket transport and the REST collaborators.
func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	if h.WS != nil {
		router.GET("/ws", h.WS)
	}

	api := router.Group("/api/v1")
	if h.Chat != nil {
		api.POST("/conversations", h.Chat.CreateConversation)
		api.GET("/conversations/:id/messages", h.Chat.ListMessages)
	}
	if h.Offers != nil {
		api.POST("/offers", h.Offers.Create)
		api.POST("/offers/:id/update", h.Offers.Update)
	}
	if h.Attachments != nil {
		api.POST("/attachments", h.Attachments.Upload)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
