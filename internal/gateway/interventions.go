package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/tekfaso/urgelec/internal/models"
)

type wireIntervention struct {
	ID          flexID           `json:"id"`
	Reference   string           `json:"reference"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Address     string           `json:"address"`
	Status      string           `json:"status"`
	SubStatus   string           `json:"sub_status"`
	Agent       *models.AgentRef `json:"assigned_agent"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (w wireIntervention) toModel() models.Intervention {
	return models.Intervention{
		ID:          string(w.ID),
		Reference:   w.Reference,
		Title:       w.Title,
		Description: w.Description,
		Address:     w.Address,
		Status:      models.NormalizeStatus(w.Status),
		SubStatus:   models.NormalizeSubStatus(w.SubStatus),
		Agent:       w.Agent,
		CreatedAt:   w.CreatedAt,
	}
}

// normalizeInterventionBody unwraps the three envelope shapes the backend
// is known to emit: {data: ...}, {intervention: ...}, and the bare object.
func normalizeInterventionBody(body []byte) (models.Intervention, error) {
	var envelope struct {
		Data         json.RawMessage `json:"data"`
		Intervention json.RawMessage `json:"intervention"`
	}
	raw := body
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case len(envelope.Intervention) > 0 && string(envelope.Intervention) != "null":
			raw = envelope.Intervention
		case len(envelope.Data) > 0 && string(envelope.Data) != "null":
			raw = envelope.Data
		}
	}

	var w wireIntervention
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.Intervention{}, err
	}
	if w.ID == "" {
		return models.Intervention{}, ErrNotFound
	}
	return w.toModel(), nil
}

// GetIntervention fetches one intervention through the public lookup path
// keyed by reporter phone.
func (c *Client) GetIntervention(ctx context.Context, id, phone string) (models.Intervention, error) {
	var raw json.RawMessage
	path := "/interventions/" + url.PathEscape(id) + "?phone=" + url.QueryEscape(phone)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return models.Intervention{}, err
	}
	in, err := normalizeInterventionBody(raw)
	if err != nil {
		return models.Intervention{}, err
	}
	if !models.KnownStatus(in.Status) {
		c.Logger.Debug().Str("intervention", in.ID).Str("status", in.Status).Msg("backend reported an unrecognized status")
	}
	return in, nil
}

// CreateIntervention submits a new report and returns the assigned id.
func (c *Client) CreateIntervention(ctx context.Context, draft models.InterventionDraft) (string, error) {
	var resp struct {
		Data struct {
			ID flexID `json:"id"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/interventions", draft, &resp); err != nil {
		return "", err
	}
	return string(resp.Data.ID), nil
}

// ListInterventions returns the reporter's interventions. With an empty
// phone the token-authenticated listing is used instead.
func (c *Client) ListInterventions(ctx context.Context, phone string) ([]models.Intervention, error) {
	path := "/interventions"
	if phone != "" {
		path += "?phone=" + url.QueryEscape(phone)
	}
	var resp struct {
		Data []wireIntervention `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Intervention, 0, len(resp.Data))
	for _, w := range resp.Data {
		out = append(out, w.toModel())
	}
	return out, nil
}

// AdvanceIntervention drives the stub backend's lifecycle endpoint. Only
// meaningful against a dev stub; the real service desk advances status
// through its own dispatching.
func (c *Client) AdvanceIntervention(ctx context.Context, id string) error {
	path := "/admin/interventions/" + url.PathEscape(id) + "/advance"
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// ListProblemTypes fetches the problem-category catalog for the report form.
func (c *Client) ListProblemTypes(ctx context.Context) ([]models.ProblemType, error) {
	var resp struct {
		Data []models.ProblemType `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/problem-types", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
