// ABOUTME: Setup command: credential checks and weight table seeding
// ABOUTME: Safe to re-run, never overwrites customized weights
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/db"
	"github.com/ikoerber/lemlist/derive"
)

// InitCommand verifies both API credentials and seeds the scoring
// weight tables when empty.
func InitCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	skipVerify := fs.Bool("skip-verify", false, "Skip API credential checks")
	_ = fs.Parse(args)

	ctx := context.Background()

	if !*skipVerify {
		if err := verifyCredentials(ctx, cfg); err != nil {
			return err
		}
	}

	if err := db.EnsureDefaultWeights(database, derive.DefaultIndustryWeights, derive.DefaultSeniorityWeights); err != nil {
		return err
	}
	fmt.Println("✓ Scoring weight tables ready")
	fmt.Println("\nSetup complete. Run 'lemsync sync' to import campaigns.")
	return nil
}

func verifyCredentials(ctx context.Context, cfg *config.Config) error {
	lemlist, err := newLemlistClient(cfg)
	if err != nil {
		return err
	}
	ok, err := lemlist.VerifyToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify outreach API key: %w", err)
	}
	if !ok {
		return fmt.Errorf("outreach API key rejected, check LEMLIST_API_KEY")
	}
	fmt.Println("✓ Outreach API key valid")

	hubspot, err := newHubSpotClient(cfg)
	if err != nil {
		return err
	}
	ok, err = hubspot.VerifyToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify CRM token: %w", err)
	}
	if !ok {
		return fmt.Errorf("CRM token rejected, check HUBSPOT_API_TOKEN")
	}
	fmt.Println("✓ CRM token valid")
	return nil
}
