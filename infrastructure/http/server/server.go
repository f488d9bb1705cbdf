// Package server exposes the messaging services over HTTP and WebSocket.
package server

import (
	"chat-dm/auth"
	"chat-dm/contract"
	"chat-dm/errors"
	"chat-dm/services"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	// SecureCookies sets the Secure flag on the session cookie (anything but development).
	SecureCookies bool
	// ClientURL is the browser origin allowed for CORS and WebSocket upgrades. Empty allows any.
	ClientURL            string
	ConnectionBufferSize int
	// MediaDir is served under /media when the disk uploader is in use.
	MediaDir     string
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	// MaxBodyBytes caps every JSON request body, image payloads included.
	MaxBodyBytes int64
}

func (c Config) pingInterval() time.Duration {
	return c.PongTimeout * 9 / 10
}

type Server struct {
	log      *slog.Logger
	config   Config
	auth     services.IAuthService
	chat     services.IChatService
	delivery services.IDeliveryService
	issuer   *auth.TokenIssuer
	exists   auth.UserExists
	registry contract.IRegistry
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	started  time.Time
}

func NewServer(
	log *slog.Logger,
	config Config,
	authService services.IAuthService,
	chatService services.IChatService,
	deliveryService services.IDeliveryService,
	issuer *auth.TokenIssuer,
	exists auth.UserExists,
	registry contract.IRegistry,
	gatherer prometheus.Gatherer,
) *Server {
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = 60 * time.Second
	}
	if config.ConnectionBufferSize <= 0 {
		config.ConnectionBufferSize = 64
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 8 << 20
	}
	s := &Server{
		log:      log,
		config:   config,
		auth:     authService,
		chat:     chatService,
		delivery: deliveryService,
		issuer:   issuer,
		exists:   exists,
		registry: registry,
		gatherer: gatherer,
		started:  time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router wires every route on a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.cors())

	protect := auth.ProtectRoute(s.issuer, s.exists)

	api := r.Group("/api")
	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", s.signup)
	authRoutes.POST("/login", s.login)
	authRoutes.POST("/logout", s.logout)
	authRoutes.PUT("/update-profile", protect, s.updateProfile)
	authRoutes.GET("/check", protect, s.check)

	messages := api.Group("/messages", protect)
	messages.GET("/contacts", s.contacts)
	messages.GET("/chats", s.chatPartners)
	messages.GET("/:id", s.conversation)
	messages.POST("/send/:id", s.send)

	r.GET("/ws", protect, s.socket)
	r.GET("/health", s.health)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	if s.config.MediaDir != "" {
		r.Static("/media", s.config.MediaDir)
	}
	return r
}

// fail answers with the status mapped from err. Server side failures are logged.
// bindJSON decodes the request body into body, reading at most MaxBodyBytes.
func (s *Server) bindJSON(c *gin.Context, body any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)
	if err := c.ShouldBindJSON(body); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", errors.ErrValidation, tooLarge.Limit)
		}
		return fmt.Errorf("%w: malformed body", errors.ErrValidation)
	}
	return nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status, message := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.allowedOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) allowedOrigin(origin string) bool {
	return s.config.ClientURL == "" || origin == s.config.ClientURL
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.allowedOrigin(origin)
}
