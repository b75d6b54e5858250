package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

type loginRequest struct {
	Username string `json:"usuario"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"usuario"`
}

// Login authenticates and stores the returned token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &domain.ValidationError{Message: "username and password are required"}
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{username, password}, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.User, nil
}
