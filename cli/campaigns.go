// ABOUTME: Campaign listing commands for remote and cached state
// ABOUTME: Shows sync status and per-campaign cache statistics
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/db"
)

// CampaignsCommand lists campaigns, remote by default, cached with -cached.
func CampaignsCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("campaigns", flag.ExitOnError)
	cached := fs.Bool("cached", false, "List locally cached campaigns instead of remote")
	status := fs.String("status", "", "Filter remote campaigns by status (running, draft, paused, ended, archived)")
	_ = fs.Parse(args)

	if *cached {
		return listCachedCampaigns(database)
	}
	return listRemoteCampaigns(cfg, *status)
}

func listRemoteCampaigns(cfg *config.Config, status string) error {
	client, err := newLemlistClient(cfg)
	if err != nil {
		return err
	}
	campaigns, err := client.GetAllCampaigns(context.Background(), status)
	if err != nil {
		return fmt.Errorf("failed to fetch campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		fmt.Println("No campaigns found")
		return nil
	}
	fmt.Printf("%-26s %-10s %s\n", "ID", "STATUS", "NAME")
	for _, c := range campaigns {
		fmt.Printf("%-26s %-10s %s\n", c.ID, c.Status, c.Name)
	}
	fmt.Printf("\n%d campaigns\n", len(campaigns))
	return nil
}

func listCachedCampaigns(database *sql.DB) error {
	campaigns, err := db.ListCampaigns(database)
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		fmt.Println("No cached campaigns. Run 'lemsync sync' first.")
		return nil
	}
	for _, c := range campaigns {
		stats, err := db.GetCampaignStats(database, c.ID)
		if err != nil {
			return err
		}
		lastSynced := "never"
		if stats.LastSyncedAt != nil {
			lastSynced = stats.LastSyncedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%s (%s)\n", c.Name, c.Status)
		fmt.Printf("  leads: %d (%d with CRM id)  activities: %d  last synced: %s\n",
			stats.Leads, stats.LeadsWithHubspot, stats.Activities, lastSynced)
	}
	return nil
}
