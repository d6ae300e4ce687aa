// Package oauth bridges the Google identity provider to local accounts.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/readflowhq/readflow-backend/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Profile is the minimal identity returned by the provider.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Provider runs the OAuth code flow.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Google implements Provider against Google's OAuth2 endpoints.
type Google struct {
	conf *oauth2.Config
}

func NewGoogle(cfg *config.Config) *Google {
	return &Google{
		conf: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.ServerURL + "/api/auth/google/callback",
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *Google) AuthURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// Exchange swaps the authorization code for a token and fetches the
// user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	resp, err := g.conf.Client(ctx, tok).Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("incomplete profile from provider")
	}
	return &profile, nil
}
