// ABOUTME: Entry point for the lemsync CLI
// ABOUTME: Routes commands to the cache, sync engine, and reconciler
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikoerber/lemlist/cli"
	"github.com/ikoerber/lemlist/config"
	"github.com/ikoerber/lemlist/db"
)

const version = "0.2.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/lemsync/lemsync.db)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("lemsync version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.NewLogger(cfg.Log)

	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	command := args[0]
	commandArgs := args[1:]

	var cmdErr error
	switch command {
	case "init":
		cmdErr = cli.InitCommand(database, cfg, commandArgs)
	case "campaigns":
		cmdErr = cli.CampaignsCommand(database, cfg, commandArgs)
	case "sync":
		cmdErr = cli.SyncCommand(database, cfg, commandArgs)
	case "enrich":
		cmdErr = cli.EnrichCommand(database, cfg, commandArgs)
	case "push":
		cmdErr = cli.PushCommand(database, cfg, commandArgs)
	case "notes":
		cmdErr = cli.NotesCommand(database, cfg, commandArgs)
	case "purge":
		cmdErr = cli.PurgeCommand(database, cfg, commandArgs)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lemsync - outreach engagement sync and scoring

Usage:
  lemsync [flags] <command> [command flags]

Commands:
  init         Verify API credentials and seed the scoring weight tables
  campaigns    List campaigns (remote by default, -cached for local)
  sync         Import campaign activities into the local cache
  enrich       Look up CRM ids for leads the sync pass deferred
  push         Derive engagement and fit scores, write them to the CRM
  notes        Analyze CRM notes (check | dedupe | drift)
  purge        Delete one campaign's cached data

Flags:
  -version     Show version and exit
  -db-path     Database path (default: ~/.local/share/lemsync/lemsync.db)

Environment:
  LEMLIST_API_KEY     Outreach platform API key
  HUBSPOT_API_TOKEN   CRM private app token
  LEMSYNC_DB_PATH     Overrides the database path

Run 'lemsync <command> -h' for command flags.`)
}
