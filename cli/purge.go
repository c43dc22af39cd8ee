// ABOUTME: Purge command: removes a campaign and all derived local data
// ABOUTME: Requires an explicit confirmation flag, never touches the CRM
package cli

import (
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/db"
)

// PurgeCommand deletes one campaign's cached data: leads, activities,
// sync state, and run history. Remote systems are untouched.
func PurgeCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	campaignName := fs.String("campaign", "", "Campaign name to purge (required)")
	yes := fs.Bool("yes", false, "Confirm deletion")
	_ = fs.Parse(args)

	if *campaignName == "" {
		return fmt.Errorf("purge requires -campaign")
	}

	campaign, err := db.GetCampaignByName(database, *campaignName)
	if err != nil {
		return err
	}
	if campaign == nil {
		return fmt.Errorf("no cached campaign named %q", *campaignName)
	}

	stats, err := db.GetCampaignStats(database, campaign.ID)
	if err != nil {
		return err
	}

	if !*yes {
		fmt.Printf("Would delete %q: %d leads, %d activities. Re-run with -yes to confirm.\n",
			campaign.Name, stats.Leads, stats.Activities)
		return nil
	}

	if err := db.PurgeCampaign(database, campaign.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Purged %q (%d leads, %d activities)\n", campaign.Name, stats.Leads, stats.Activities)
	return nil
}
