// Package session is the thin adapter over the hosted platform's
// account and teams APIs. The platform owns authentication end to end;
// this client only carries the session cookie it hands back and
// resolves the admin role from team membership.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"food-preorder/config"
	"food-preorder/models"
	"food-preorder/store"

	"github.com/sirupsen/logrus"
)

type Client struct {
	endpoint string
	project  string
	teamID   string
	http     *http.Client
}

func New(cfg config.BackendConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		project:  cfg.Project,
		teamID:   cfg.AdminTeamID,
		http:     &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

// Login opens an email/password session. The platform's session cookie
// lands in the client's jar and rides along on later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/account/sessions/email", map[string]any{
		"email":    email,
		"password": password,
	})
	return err
}

// Register creates the account, opens a session, and stores the phone
// number as a preference. A failed preference write is logged and
// ignored; the account is already usable.
func (c *Client) Register(ctx context.Context, name, email, password, phone string) (*models.User, error) {
	_, err := c.do(ctx, http.MethodPost, "/account", map[string]any{
		"userId":   store.NewID(),
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	if err := c.Login(ctx, email, password); err != nil {
		return nil, err
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		if _, err := c.do(ctx, http.MethodPatch, "/account/prefs", map[string]any{
			"prefs": map[string]any{"phone": phone},
		}); err != nil {
			logrus.WithError(err).Warn("store phone preference")
		}
	}
	return c.Current(ctx)
}

// Current returns the user owning the active session.
func (c *Client) Current(ctx context.Context) (*models.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/account", nil)
	if err != nil {
		return nil, err
	}
	var raw struct {
		ID    string `json:"$id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Prefs struct {
			Phone string `json:"phone"`
		} `json:"prefs"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &models.User{ID: raw.ID, Name: raw.Name, Email: raw.Email, Phone: raw.Prefs.Phone}, nil
}

// Logout closes the current session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/account/sessions/current", nil)
	return err
}

// IsAdmin reports whether the user holds a confirmed membership in the
// admin team. No team configured, or a membership listing the platform
// refuses, reads as not-admin rather than an error: role resolution
// must never lock a customer out of ordering.
func (c *Client) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if c.teamID == "" || userID == "" {
		return false, nil
	}
	body, err := c.do(ctx, http.MethodGet, "/teams/"+url.PathEscape(c.teamID)+"/memberships", nil)
	if err != nil {
		var re *remoteError
		if errors.As(err, &re) && (re.status == http.StatusUnauthorized || re.status == http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	var raw struct {
		Memberships []struct {
			UserID  string `json:"userId"`
			Confirm bool   `json:"confirm"`
		} `json:"memberships"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return false, fmt.Errorf("decode memberships: %w", err)
	}
	for _, m := range raw.Memberships {
		if m.UserID == userID && m.Confirm {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload map[string]any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", c.project)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call auth platform: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var platform struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &platform)
		if platform.Message == "" {
			platform.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &remoteError{status: resp.StatusCode, message: platform.Message}
	}
	return respBody, nil
}

type remoteError struct {
	status  int
	message string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("session: %s (status %d)", e.message, e.status)
}
