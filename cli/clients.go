// ABOUTME: API client construction from configuration
// ABOUTME: Shared by every command that talks to a remote API
package cli

import (
	"github.com/ikoerber/lemlist/api"
	"github.com/ikoerber/lemlist/config"
)

func newLemlistClient(cfg *config.Config) (*api.LemlistClient, error) {
	if err := cfg.RequireLemlist(); err != nil {
		return nil, err
	}
	return api.NewLemlistClient(api.LemlistOptions{
		APIKey:     cfg.Lemlist.APIKey,
		BaseURL:    cfg.Lemlist.BaseURL,
		MaxRetries: cfg.Sync.MaxRetries,
		PageLimit:  cfg.Lemlist.PageLimit,
		PageDelay:  cfg.Lemlist.PageDelay,
	}), nil
}

func newHubSpotClient(cfg *config.Config) (*api.HubSpotClient, error) {
	if err := cfg.RequireHubSpot(); err != nil {
		return nil, err
	}
	return api.NewHubSpotClient(api.HubSpotOptions{
		APIToken:   cfg.HubSpot.APIToken,
		BaseURL:    cfg.HubSpot.BaseURL,
		MaxRetries: cfg.Sync.MaxRetries,
		BatchDelay: cfg.HubSpot.BatchDelay,
	}), nil
}
