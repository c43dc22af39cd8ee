// ABOUTME: Push command: derives scores and writes them to the CRM
// ABOUTME: Reports updated, failed, and could-not-compute counts
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/sync"
)

// PushCommand derives engagement and fit scores for enriched leads and
// writes them back to the CRM.
func PushCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	campaignName := fs.String("campaign", "", "Push only the campaign with this exact name")
	batchSize := fs.Int("batch-size", cfg.HubSpot.BatchSize, "Contacts per batch update")
	_ = fs.Parse(args)

	crm, err := newHubSpotClient(cfg)
	if err != nil {
		return err
	}

	targets, err := resolveCachedCampaigns(database, *campaignName)
	if err != nil {
		return err
	}

	pusher := sync.NewPusher(database, crm, sync.PusherOptions{BatchSize: *batchSize})
	ctx := context.Background()

	for _, campaign := range targets {
		fmt.Printf("Pushing %s...\n", campaign.Name)
		stats, err := pusher.PushCampaign(ctx, campaign.ID, func(current, total int) {
			fmt.Printf("\r  deriving %d/%d", current, total)
		})
		if err != nil {
			return fmt.Errorf("push of %s failed: %w", campaign.Name, err)
		}
		fmt.Printf("\r✓ %s: %d leads, %d updated, %d failed, %d skipped\n",
			campaign.Name, stats.Leads, stats.Updated, stats.Failed, stats.Skipped)
		if stats.MissingCompany+stats.UnmappedIndustry+stats.UnknownSeniority > 0 {
			fmt.Printf("  fit gaps: %d missing company, %d unmapped industry, %d unknown seniority\n",
				stats.MissingCompany, stats.UnmappedIndustry, stats.UnknownSeniority)
		}
	}
	return nil
}
