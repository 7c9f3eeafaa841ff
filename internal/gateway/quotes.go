package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tekfaso/urgelec/internal/models"
)

type wireQuote struct {
	ID          flexID             `json:"id"`
	Amount      float64            `json:"amount"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	Items       []models.QuoteItem `json:"items"`
}

func (w wireQuote) toModel() models.Quote {
	return models.Quote{
		ID:          string(w.ID),
		Amount:      w.Amount,
		Description: w.Description,
		Status:      strings.ToLower(strings.TrimSpace(w.Status)),
		Items:       w.Items,
	}
}

// ListQuotes fetches the full quote collection for an intervention. The
// caller replaces its prior collection wholesale.
func (c *Client) ListQuotes(ctx context.Context, interventionID, phone string) ([]models.Quote, error) {
	path := "/interventions/" + url.PathEscape(interventionID) + "/quotes?phone=" + url.QueryEscape(phone)
	var resp struct {
		Data []wireQuote `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Quote, 0, len(resp.Data))
	for _, w := range resp.Data {
		out = append(out, w.toModel())
	}
	return out, nil
}

type quoteDecision struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason,omitempty"`
}

// AcceptQuote relays the reporter's acceptance of a quote.
func (c *Client) AcceptQuote(ctx context.Context, quoteID, phone string) error {
	path := "/quotes/" + url.PathEscape(quoteID) + "/accept"
	return c.doJSON(ctx, http.MethodPost, path, quoteDecision{Phone: phone}, nil)
}

// RejectQuote relays the reporter's rejection, with an optional reason.
func (c *Client) RejectQuote(ctx context.Context, quoteID, phone, reason string) error {
	path := "/quotes/" + url.PathEscape(quoteID) + "/reject"
	return c.doJSON(ctx, http.MethodPost, path, quoteDecision{Phone: phone, Reason: reason}, nil)
}
