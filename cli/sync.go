// ABOUTME: Sync command: imports campaign activities into the local cache
// ABOUTME: Loops matching campaigns through the sync engine with progress output
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/models"
	"github.com/ikoerber/lemlist/sync"
)

// SyncCommand syncs one campaign or every campaign matching a status.
func SyncCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	campaignName := fs.String("campaign", "", "Sync only the campaign with this exact name")
	status := fs.String("status", models.CampaignRunning, "Sync campaigns with this status (empty for all)")
	force := fs.Bool("force", false, "Force a full reload even for previously synced campaigns")
	_ = fs.Parse(args)

	client, err := newLemlistClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	remote, err := client.GetAllCampaigns(ctx, *status)
	if err != nil {
		return fmt.Errorf("failed to fetch campaigns: %w", err)
	}

	var targets []models.Campaign
	for _, c := range remote {
		if *campaignName != "" && c.Name != *campaignName {
			continue
		}
		targets = append(targets, models.Campaign{ID: c.ID, Name: c.Name, Status: c.Status})
	}
	if len(targets) == 0 {
		if *campaignName != "" {
			return fmt.Errorf("no campaign named %q", *campaignName)
		}
		fmt.Println("No campaigns to sync")
		return nil
	}

	engine := sync.NewEngine(database, client, sync.EngineOptions{
		EnrichmentCap: cfg.Sync.EnrichmentCap,
	})

	failures := 0
	for _, campaign := range targets {
		fmt.Printf("Syncing %s...\n", campaign.Name)
		result, err := engine.SyncCampaign(ctx, campaign, sync.SyncOptions{Force: *force}, func(current, total int) {
			fmt.Printf("\r  enriching leads %d/%d", current, total)
		})
		if err != nil {
			fmt.Printf("✗ %s: %v\n", campaign.Name, err)
			failures++
			continue
		}
		fmt.Printf("\r✓ %s (%s): %d activities fetched, %d new, %d leads",
			result.CampaignName, result.Mode,
			result.ActivitiesFetched, result.ActivitiesNew, result.LeadsSeen)
		if result.LeadsEnriched > 0 || result.LeadsDeferred > 0 {
			fmt.Printf(", %d enriched, %d deferred", result.LeadsEnriched, result.LeadsDeferred)
		}
		fmt.Println()
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d campaigns failed", failures, len(targets))
	}
	return nil
}
