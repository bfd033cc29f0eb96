package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type loginRecord struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r *loginRecord) validate() error {
	if r.Token == "" {
		return errors.New("login response without token")
	}
	return nil
}

type Session struct {
	Token  string
	UserID string
	Name   string
	Email  string
}

// Login exchanges credentials for a bearer token (POST /users/login).
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &APIError{Kind: KindValidation, Message: "email and password are required"}
	}
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var rec loginRecord
	if err := c.call(ctx, http.MethodPost, "/users/login", body, &rec, nil); err != nil {
		return nil, err
	}
	return &Session{
		Token:  rec.Token,
		UserID: rec.User.ID,
		Name:   rec.User.Name,
		Email:  rec.User.Email,
	}, nil
}
