package qikpod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

// DefaultAuthURL serves operator validation. It lives next to, not under,
// the showcase API.
const DefaultAuthURL = "https://staging.qikpod.com/nanostore"

type Session struct {
	UserID   string
	UserName string
	Token    string
}

type loginRecord struct {
	Token    string   `json:"token"`
	UserName string   `json:"user_name"`
	ID       recordID `json:"id"`
	Message  string   `json:"message"`
}

// Login validates an operator phone number and password and returns the
// bearer token to use against the showcase API. The client must point at the
// auth service, see DefaultAuthURL.
func (c *Client) Login(ctx context.Context, phone, password string) (Session, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return Session{}, errors.New("phone and password are required")
	}

	query := url.Values{}
	query.Set("user_phone", phone)
	query.Set("password", password)

	body, err := c.do(ctx, http.MethodGet, "/validate", query)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			return Session{}, fmt.Errorf("login: %w: %w", domain.ErrUnauthorized, err)
		}
		return Session{}, fmt.Errorf("login: %w", err)
	}

	var record loginRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return Session{}, fmt.Errorf("login: decode response: %w", err)
	}
	if strings.TrimSpace(record.Token) == "" {
		message := record.Message
		if message == "" {
			message = "no token issued"
		}
		return Session{}, fmt.Errorf("login: %w: %s", domain.ErrUnauthorized, message)
	}

	return Session{
		UserID:   string(record.ID),
		UserName: strings.TrimSpace(record.UserName),
		Token:    strings.TrimSpace(record.Token),
	}, nil
}
