package gateway

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login authenticates a manager/agent session and returns the access
// token. The token envelope is as inconsistent as the intervention one;
// both known shapes are accepted.
func (c *Client) Login(ctx context.Context, phone, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		Data        struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Phone: phone, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Data.AccessToken != "" {
		return resp.Data.AccessToken, nil
	}
	return resp.AccessToken, nil
}
