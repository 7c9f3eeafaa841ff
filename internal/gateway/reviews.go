package gateway

import (
	"context"
	"net/http"

	"github.com/tekfaso/urgelec/internal/models"
)

// SubmitReview posts the post-completion satisfaction survey.
func (c *Client) SubmitReview(ctx context.Context, review models.Review) error {
	return c.doJSON(ctx, http.MethodPost, "/reviews", review, nil)
}
