// ABOUTME: Note reconciliation commands: duplicate detection and drift reports
// ABOUTME: Read-only by default, deletes only with an explicit flag
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/db"
	"github.com/ikoerber/lemlist/models"
	"github.com/ikoerber/lemlist/notes"
)

// NotesCommand analyzes CRM notes: 'check' lists duplicates, 'dedupe'
// deletes them, 'drift' compares notes against the local cache.
func NotesCommand(database *sql.DB, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("notes requires a subcommand: check, dedupe, or drift")
	}
	subcommand := args[0]
	subArgs := args[1:]

	crm, err := newHubSpotClient(cfg)
	if err != nil {
		return err
	}
	analyzer := notes.NewAnalyzer(crm, nil, nil)

	switch subcommand {
	case "check":
		return notesCheck(analyzer, subArgs)
	case "dedupe":
		return notesDedupe(analyzer, subArgs)
	case "drift":
		return notesDrift(database, analyzer, subArgs)
	default:
		return fmt.Errorf("unknown notes subcommand %q", subcommand)
	}
}

func fetchParsedNotes(analyzer *notes.Analyzer) (*notes.ContactNotes, error) {
	fmt.Println("Fetching notes from CRM...")
	fetched, err := analyzer.FetchAllNotes(context.Background(), func(current, total int) {
		fmt.Printf("\r  contacts %d/%d", current, total)
	})
	if err != nil {
		return nil, err
	}
	fmt.Printf("\r✓ %d notes parsed, %d foreign notes ignored\n", len(fetched.Parsed), fetched.Foreign)
	return fetched, nil
}

func notesCheck(analyzer *notes.Analyzer, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	_ = fs.Parse(args)

	fetched, err := fetchParsedNotes(analyzer)
	if err != nil {
		return err
	}

	groups := notes.FindDuplicates(fetched.Parsed)
	if len(groups) == 0 {
		fmt.Println("No duplicate notes found")
		return nil
	}

	extras := 0
	for _, group := range groups {
		first := group.Notes[0]
		fmt.Printf("contact %s: %q in %s step %d, %d copies\n",
			first.ContactID, first.Phrase, first.Campaign, first.Step, len(group.Notes))
		extras += len(group.Notes) - 1
	}
	fmt.Printf("\n%d duplicate groups, %d redundant notes. Run 'lemsync notes dedupe' to delete them.\n",
		len(groups), extras)
	return nil
}

func notesDedupe(analyzer *notes.Analyzer, args []string) error {
	fs := flag.NewFlagSet("dedupe", flag.ExitOnError)
	keepOldest := fs.Bool("keep-oldest", false, "Keep the oldest note per group instead of the newest")
	dryRun := fs.Bool("dry-run", false, "Report what would be deleted without deleting")
	_ = fs.Parse(args)

	fetched, err := fetchParsedNotes(analyzer)
	if err != nil {
		return err
	}

	groups := notes.FindDuplicates(fetched.Parsed)
	if len(groups) == 0 {
		fmt.Println("No duplicate notes found")
		return nil
	}

	extras := 0
	for _, group := range groups {
		extras += len(group.Notes) - 1
	}
	if *dryRun {
		fmt.Printf("Would delete %d notes across %d groups\n", extras, len(groups))
		return nil
	}

	stats, err := analyzer.DeleteDuplicates(context.Background(), groups, !*keepOldest)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %d duplicate notes\n", stats.Deleted)
	if stats.FailedBatches > 0 {
		fmt.Printf("✗ %d delete batches failed, re-run to retry\n", stats.FailedBatches)
	}
	return nil
}

func notesDrift(database *sql.DB, analyzer *notes.Analyzer, args []string) error {
	fs := flag.NewFlagSet("drift", flag.ExitOnError)
	_ = fs.Parse(args)

	fetched, err := fetchParsedNotes(analyzer)
	if err != nil {
		return err
	}

	campaigns, err := db.ListCampaigns(database)
	if err != nil {
		return err
	}
	campaignNames := make(map[string]string, len(campaigns))
	var activities []models.ActivityWithLead
	for _, campaign := range campaigns {
		campaignNames[campaign.ID] = campaign.Name
		campaignActivities, err := db.GetActivitiesByCampaign(database, campaign.ID)
		if err != nil {
			return err
		}
		activities = append(activities, campaignActivities...)
	}

	report := notes.CompareWithStore(fetched, activities, campaignNames)
	if len(report.OnlyInCRM) == 0 && len(report.OnlyInStore) == 0 {
		fmt.Println("✓ CRM notes and local cache agree")
		return nil
	}

	if len(report.OnlyInCRM) > 0 {
		fmt.Printf("In CRM notes but not in cache (%d):\n", len(report.OnlyInCRM))
		for _, t := range report.OnlyInCRM {
			fmt.Printf("  %s  %s  %s\n", t.Email, t.ActivityType, t.Campaign)
		}
	}
	if len(report.OnlyInStore) > 0 {
		fmt.Printf("In cache but not in CRM notes (%d):\n", len(report.OnlyInStore))
		for _, t := range report.OnlyInStore {
			fmt.Printf("  %s  %s  %s\n", t.Email, t.ActivityType, t.Campaign)
		}
	}
	return nil
}
