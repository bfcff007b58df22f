package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"traffic-share-client/internal/api"
	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/common/middleware"
	"traffic-share-client/internal/models"
)

const BasePath = "/api"

type Options struct {
	Secret         string
	Origin         string
	TokenTTL       time.Duration
	StartBalance   float64
	MinWithdrawUSD float64
	Debug          bool
}

// Server is a stand-in for the traffic backend, serving every catalog route
// from memory.
type Server struct {
	opts     Options
	issuer   *Issuer
	state    *state
	hub      *hub
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "dev-secret"
	}
	if opts.Origin == "" {
		opts.Origin = "*"
	}
	if opts.MinWithdrawUSD <= 0 {
		opts.MinWithdrawUSD = 1.39
	}

	s := &Server{
		opts:   opts,
		issuer: NewIssuer(opts.Secret, opts.TokenTTL),
		state:  newState(opts.StartBalance),
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.engine = s.router()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Issuer() *Issuer {
	return s.issuer
}

func (s *Server) router() *gin.Engine {
	if !s.opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	if s.opts.Origin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{s.opts.Origin}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	handlers := s.handlers()
	group := router.Group(BasePath)
	auth := middleware.RequireBearer(s.issuer.Verify)

	for _, e := range api.Endpoints {
		h, ok := handlers[e.Name]
		if !ok {
			logger.Warn().Str("endpoint", e.Name).Msg("No dev handler for endpoint")
			continue
		}
		if e.Public {
			group.Handle(e.Method, e.GinPath(), h)
		} else {
			group.Handle(e.Method, e.GinPath(), auth, h)
		}
	}
	group.GET("/ws/:token", s.liveUpdates)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "traffic-devserver",
		})
	})
	return router
}

// liveUpdates answers "ping" with "pong" and pushes the user's events.
// An invalid token is closed with 1008.
func (s *Server) liveUpdates(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Upgrade error")
		return
	}
	defer conn.Close()

	telegramID, err := s.issuer.Verify(c.Param("token"))
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Invalid token"),
			time.Now().Add(time.Second))
		return
	}

	events := s.hub.register(telegramID)
	defer s.hub.unregister(telegramID, events)

	hello, _ := json.Marshal(models.LiveEvent{Type: "connected", Timestamp: time.Now().UTC().Format(time.RFC3339)})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)

	incoming := make(chan string)
	go func() {
		defer close(incoming)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case incoming <- string(data):
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			if msg == "ping" {
				if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
					return
				}
			}
		case payload := <-events:
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
