// ABOUTME: Batch enrichment command for leads deferred by sync
// ABOUTME: Resolves campaign names and reports per-lead outcomes
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/db"
	"github.com/ikoerber/lemlist/models"
	"github.com/ikoerber/lemlist/sync"
)

// EnrichCommand runs the batch enrichment job for one cached campaign,
// or for all of them.
func EnrichCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	campaignName := fs.String("campaign", "", "Enrich only the campaign with this exact name")
	_ = fs.Parse(args)

	client, err := newLemlistClient(cfg)
	if err != nil {
		return err
	}

	targets, err := resolveCachedCampaigns(database, *campaignName)
	if err != nil {
		return err
	}

	enricher := sync.NewEnricher(database, client, nil, nil)
	ctx := context.Background()

	for _, campaign := range targets {
		fmt.Printf("Enriching %s...\n", campaign.Name)
		stats, err := enricher.EnrichCampaign(ctx, campaign.ID, func(current, total int) {
			fmt.Printf("\r  %d/%d", current, total)
		})
		if err != nil {
			return fmt.Errorf("enrichment of %s failed: %w", campaign.Name, err)
		}
		fmt.Printf("\r✓ %s: %d processed, %d enriched, %d not found, %d failed\n",
			campaign.Name, stats.Processed, stats.Enriched, stats.NotFound, stats.Failed)
	}
	return nil
}

// resolveCachedCampaigns returns the cached campaigns to operate on:
// one by exact name, or all when name is empty.
func resolveCachedCampaigns(database *sql.DB, name string) ([]models.Campaign, error) {
	if name != "" {
		campaign, err := db.GetCampaignByName(database, name)
		if err != nil {
			return nil, err
		}
		if campaign == nil {
			return nil, fmt.Errorf("no cached campaign named %q, sync it first", name)
		}
		return []models.Campaign{*campaign}, nil
	}
	campaigns, err := db.ListCampaigns(database)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, fmt.Errorf("no cached campaigns, run 'lemsync sync' first")
	}
	return campaigns, nil
}
