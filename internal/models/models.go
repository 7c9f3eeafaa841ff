package models

import "time"

// Canonical intervention statuses. The accepted wire value for the third
// stage is "in_progress"; the legacy hyphenated spelling still emitted by
// older backend deployments is rewritten by NormalizeStatus at ingestion.
const (
	StatusPending    = "pending"
	StatusAccepted   = "accepted"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusClosed     = "closed"
)

// Agent sub-statuses reported while an intervention is in progress.
const (
	SubStatusEnRoute = "en-route"
	SubStatusArrived = "arrive"
)

// Quote statuses.
const (
	QuoteStatusPending  = "pending"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
)

type Intervention struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Status      string    `json:"status"`
	SubStatus   string    `json:"sub_status,omitempty"`
	Agent       *AgentRef `json:"assigned_agent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AgentRef struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Quote struct {
	ID          string      `json:"id"`
	Amount      float64     `json:"amount"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Items       []QuoteItem `json:"items"`
}

type QuoteItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type Review struct {
	InterventionID string `json:"intervention_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
	ClientPhone    string `json:"client_phone"`
}

type ProblemType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InterventionDraft is the submission payload for a new report.
type InterventionDraft struct {
	ProblemTypeID   string  `json:"problem_type_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	PriorityLevel   int     `json:"priority_level"`
	ClientPhone     string  `json:"client_phone"`
	ClientFirstName string  `json:"client_first_name"`
	ClientLastName  string  `json:"client_last_name"`
}

// DisplayRef returns the human-readable code for an intervention,
// falling back to the raw id when the backend assigned no reference.
func (i Intervention) DisplayRef() string {
	if i.Reference != "" {
		return i.Reference
	}
	return i.ID
}
