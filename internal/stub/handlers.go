package stub

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tekfaso/urgelec/internal/models"
)

type createInterventionRequest struct {
	ProblemTypeID   string  `json:"problem_type_id" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description" validate:"required"`
	Address         string  `json:"address" validate:"required"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	PriorityLevel   int     `json:"priority_level" validate:"gte=0,lte=3"`
	ClientPhone     string  `json:"client_phone" validate:"required,min=8"`
	ClientFirstName string  `json:"client_first_name"`
	ClientLastName  string  `json:"client_last_name"`
}

func (s *Service) createIntervention(c *gin.Context) {
	var req createInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	id := s.allocID()
	s.interventions[id] = &models.Intervention{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Status:      models.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
}

func (s *Service) listInterventions(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" && c.GetHeader("Authorization") == "" {
		writeError(c, http.StatusUnauthorized, "phone or token required")
		return
	}

	s.mu.Lock()
	out := make([]models.Intervention, 0, len(s.interventions))
	for _, in := range s.interventions {
		out = append(out, *in)
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"data": out})
}

// getIntervention rotates through the three envelope shapes the real
// backend is known to emit, keeping the client's tolerance honest.
func (s *Service) getIntervention(c *gin.Context) {
	if c.Query("phone") == "" {
		writeError(c, http.StatusBadRequest, "phone is required")
		return
	}

	s.mu.Lock()
	in, ok := s.interventions[c.Param("id")]
	if !ok {
		s.mu.Unlock()
		writeError(c, http.StatusNotFound, "intervention not found")
		return
	}
	payload := *in
	shape := s.lookups % 3
	s.lookups++
	s.mu.Unlock()

	switch shape {
	case 0:
		c.JSON(http.StatusOK, gin.H{"data": payload})
	case 1:
		c.JSON(http.StatusOK, gin.H{"intervention": payload})
	default:
		c.JSON(http.StatusOK, payload)
	}
}

func (s *Service) listQuotes(c *gin.Context) {
	s.mu.Lock()
	quotes := s.quotes[c.Param("id")]
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, *q)
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"data": out})
}

type decisionRequest struct {
	Phone  string `json:"phone" validate:"required"`
	Reason string `json:"reason"`
}

func (s *Service) acceptQuote(c *gin.Context) {
	s.decideQuote(c, models.QuoteStatusAccepted)
}

func (s *Service) rejectQuote(c *gin.Context) {
	s.decideQuote(c, models.QuoteStatusRejected)
}

func (s *Service) decideQuote(c *gin.Context, decision string) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for interventionID, quotes := range s.quotes {
		for _, q := range quotes {
			if q.ID != c.Param("id") {
				continue
			}
			if q.Status != models.QuoteStatusPending {
				writeError(c, http.StatusConflict, "quote already decided")
				return
			}
			q.Status = decision
			// Accepting a quote commits the work: a still-pending
			// intervention advances, mirroring the real backend.
			if decision == models.QuoteStatusAccepted {
				if in := s.interventions[interventionID]; in != nil && in.Status == models.StatusPending {
					in.Status = models.StatusAccepted
				}
			}
			c.JSON(http.StatusOK, gin.H{"data": q})
			return
		}
	}
	writeError(c, http.StatusNotFound, "quote not found")
}

type reviewRequest struct {
	InterventionID string `json:"intervention_id" validate:"required"`
	Rating         int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment        string `json:"comment"`
	ClientPhone    string `json:"client_phone" validate:"required"`
}

func (s *Service) createReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	_, ok := s.interventions[req.InterventionID]
	s.mu.Unlock()
	if !ok {
		writeError(c, http.StatusNotFound, "intervention not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"rating": req.Rating}})
}

type loginStubRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Service) login(c *gin.Context) {
	var req loginStubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Password != "demo" {
		writeError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"access_token": "stub-token-" + req.Phone}})
}

func (s *Service) listProblemTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.problemTypes})
}

// advanceIntervention moves the demo incident one step along its
// lifecycle so the timeline can be exercised without a real dispatcher.
func (s *Service) advanceIntervention(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.interventions[c.Param("id")]
	if !ok {
		writeError(c, http.StatusNotFound, "intervention not found")
		return
	}

	switch {
	case in.Status == models.StatusPending:
		in.Status = models.StatusAccepted
		in.Agent = &models.AgentRef{Name: "Bernard Ouedraogo", Phone: "76000000"}
	case in.Status == models.StatusAccepted:
		in.Status = models.StatusInProgress
		in.SubStatus = models.SubStatusEnRoute
	case in.Status == models.StatusInProgress && in.SubStatus == models.SubStatusEnRoute:
		in.SubStatus = models.SubStatusArrived
	case in.Status == models.StatusInProgress:
		in.Status = models.StatusCompleted
		in.SubStatus = ""
	case in.Status == models.StatusCompleted:
		in.Status = models.StatusClosed
	default:
		writeError(c, http.StatusConflict, "intervention already closed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": in})
}
