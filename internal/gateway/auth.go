package gateway

import (
	"context"
	"net/http"

	"beauty-kart/internal/model"
)

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID         string    `json:"_id"`
		Role       string    `json:"role"`
		ClientInfo model.Ref `json:"clientInfo"`
	} `json:"user"`
}

// Login exchanges credentials for an identity. Users without a client
// profile use their user id as client id.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "auth/login", model.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User.ID == "" {
		return nil, &Error{Op: "login", Message: "response has no token or user", Err: model.ErrUnauthorised}
	}

	clientID := resp.User.ClientInfo.String()
	if clientID == "" {
		clientID = resp.User.ID
	}

	return &model.Identity{
		UserID:    resp.User.ID,
		ClientID:  clientID,
		Role:      resp.User.Role,
		AuthToken: resp.Token,
	}, nil
}

var (
	_ CartGateway    = (*Client)(nil)
	_ CatalogGateway = (*Client)(nil)
	_ OrderGateway   = (*Client)(nil)
	_ AuthGateway    = (*Client)(nil)
)
