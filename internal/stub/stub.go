// Package stub is an in-memory stand-in for the service-desk backend,
// used for local development and demos. It implements the wire contract
// the gateway consumes, including the backend's inconsistent response
// envelopes, so the client can be exercised end to end without the real
// service.
package stub

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tekfaso/urgelec/internal/models"
)

type Service struct {
	mu            sync.Mutex
	interventions map[string]*models.Intervention
	quotes        map[string][]*models.Quote
	problemTypes  []models.ProblemType
	nextID        int
	lookups       int

	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		interventions: map[string]*models.Intervention{},
		quotes:        map[string][]*models.Quote{},
		problemTypes: []models.ProblemType{
			{ID: "1", Name: "Power outage"},
			{ID: "2", Name: "Sparking outlet"},
			{ID: "3", Name: "Downed line"},
			{ID: "4", Name: "Meter failure"},
		},
		nextID:   1,
		validate: validator.New(),
		logger:   logger,
	}
	s.seed()
	return s
}

// seed installs a demo intervention with a pending quote so `urgelec
// track 1` works against a fresh stub.
func (s *Service) seed() {
	id := s.allocID()
	s.interventions[id] = &models.Intervention{
		ID:          id,
		Reference:   "INT-DEMO-001",
		Title:       "Power outage",
		Description: "Whole building without power since this morning",
		Address:     "12 Avenue de la Liberte",
		Status:      models.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	s.quotes[id] = []*models.Quote{{
		ID:          "1",
		Amount:      85,
		Description: "Main breaker replacement",
		Status:      models.QuoteStatusPending,
		Items: []models.QuoteItem{
			{Name: "Breaker 63A", Quantity: 1, UnitPrice: 45, Total: 45},
			{Name: "Labor", Quantity: 1, UnitPrice: 40, Total: 40},
		},
	}}
}

func (s *Service) allocID() string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	return id
}

func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	corsCfg := cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))

	r.POST("/interventions", s.createIntervention)
	r.GET("/interventions", s.listInterventions)
	r.GET("/interventions/:id", s.getIntervention)
	r.GET("/interventions/:id/quotes", s.listQuotes)
	r.POST("/quotes/:id/accept", s.acceptQuote)
	r.POST("/quotes/:id/reject", s.rejectQuote)
	r.POST("/reviews", s.createReview)
	r.POST("/auth/login", s.login)
	r.GET("/problem-types", s.listProblemTypes)

	admin := r.Group("/admin")
	admin.POST("/interventions/:id/advance", s.advanceIntervention)

	return r
}

func requestLogger(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
