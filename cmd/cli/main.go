package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/receipt-organizer/internal/archive"
	"github.com/dvloznov/receipt-organizer/internal/config"
	"github.com/dvloznov/receipt-organizer/internal/filestore"
	"github.com/dvloznov/receipt-organizer/internal/googleauth"
	"github.com/dvloznov/receipt-organizer/internal/imaging"
	"github.com/dvloznov/receipt-organizer/internal/ledger"
	"github.com/dvloznov/receipt-organizer/internal/logger"
	"github.com/dvloznov/receipt-organizer/internal/receipt"
	"github.com/dvloznov/receipt-organizer/internal/scan"
	"github.com/dvloznov/receipt-organizer/internal/sheetstore"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(log)
	case "list":
		runList(log)
	case "delete":
		runDelete(log)
	case "scan":
		runScan(log)
	case "archive":
		runArchive(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Receipt Organizer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  add       Record a receipt, optionally with an attachment")
	fmt.Println("  list      List recorded receipts for a profile")
	fmt.Println("  delete    Delete a receipt by ID")
	fmt.Println("  scan      Suggest form values from a receipt image")
	fmt.Println("  archive   Mirror a profile's receipts into BigQuery")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads configuration and wires the coordinator for one profile.
func setup(ctx context.Context, log zerolog.Logger, profileName string) (*ledger.Service, *config.Config, *config.Profiles) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	profiles, err := config.LoadProfiles(cfg.Profiles.File)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load profiles")
	}

	prof, ok := profiles.Get(profileName)
	if !ok {
		log.Fatal().Str("profile", profileName).Strs("known", profiles.Names()).Msg("Unknown profile")
	}

	opts, err := googleauth.ClientOptions(cfg.Google.ServiceAccountJSON, cfg.Google.CredentialsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, googleauth.SetupInstructions)
		log.Fatal().Err(err).Msg("Failed to resolve Google credentials")
	}

	tab, err := sheetstore.New(ctx, prof.SpreadsheetID, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Sheets client")
	}
	files, err := filestore.NewDrive(ctx, prof.DriveFolderID, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Drive client")
	}

	validator := receipt.NewValidator(profiles.Categories)
	return ledger.NewService(tab, files, validator, log), cfg, profiles
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	profile := fs.String("profile", "", "profile name")
	date := fs.String("date", "", "receipt date (e.g. 2024-01-15 or 15/01/2024)")
	item := fs.String("item", "", "item description")
	category := fs.String("category", "", "spending category")
	amount := fs.String("amount", "", "amount spent")
	file := fs.String("file", "", "path to a receipt image or PDF (optional)")
	fs.Parse(os.Args[2:])

	if *profile == "" {
		log.Fatal().Msg("Error: --profile is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc, _, _ := setup(ctx, log, *profile)

	cand := receipt.Candidate{Date: *date, Item: *item, Category: *category}
	if *amount != "" {
		parsed, err := decimal.NewFromString(*amount)
		if err != nil {
			log.Fatal().Str("amount", *amount).Msg("Invalid amount")
		}
		cand.Amount = decimal.NewNullDecimal(parsed)
	}

	var att *ledger.Attachment
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to read attachment")
		}
		att = &ledger.Attachment{Filename: filepath.Base(*file), Data: data}
	}

	rec, err := svc.Create(ctx, cand, att)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to record receipt")
	}

	fmt.Printf("Recorded %s: %s / %s / %s\n", rec.ID, rec.Date, rec.Item, rec.Amount.String())
	if rec.AttachmentKey != "" {
		fmt.Printf("Attachment: %s\n", filestore.ViewURL(rec.AttachmentKey))
	}
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	profile := fs.String("profile", "", "profile name")
	fs.Parse(os.Args[2:])

	if *profile == "" {
		log.Fatal().Msg("Error: --profile is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc, _, _ := setup(ctx, log, *profile)

	records, err := svc.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list receipts")
	}

	fmt.Printf("%d receipts for %s\n", len(records), *profile)
	for _, rec := range records {
		line := fmt.Sprintf("%s  %-10s  %-12s  %8s  %s", rec.ID, rec.Date, rec.Category, rec.Amount.String(), rec.Item)
		if rec.AttachmentKey != "" {
			line += "  [attachment]"
		}
		fmt.Println(line)
	}
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	profile := fs.String("profile", "", "profile name")
	id := fs.String("id", "", "receipt ID to delete")
	fs.Parse(os.Args[2:])

	if *profile == "" || *id == "" {
		log.Fatal().Msg("Usage: cli delete -profile NAME -id RECEIPT_ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc, _, _ := setup(ctx, log, *profile)

	if err := svc.Delete(ctx, *id); err != nil {
		log.Fatal().Err(err).Msg("Failed to delete receipt")
	}

	fmt.Printf("Deleted %s (no-op if it did not exist)\n", *id)
}

func runScan(log zerolog.Logger) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	file := fs.String("file", "", "path to a receipt image or PDF")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if !cfg.ScanEnabled() {
		log.Fatal().Msg("GEMINI_API_KEY is not set - scanning is disabled")
	}

	profiles, err := config.LoadProfiles(cfg.Profiles.File)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load profiles")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read file")
	}
	filename := filepath.Base(*file)
	if !imaging.IsSupported(filename) {
		log.Fatal().Str("file", filename).Msg("Unsupported file type")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	scanner := scan.New(cfg.Scan.Model, profiles.Categories)
	sug, err := scanner.Suggest(ctx, data, imaging.MIMEType(filename))
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	fmt.Println("Suggested values:")
	fmt.Printf("  Date:     %s\n", sug.Date)
	fmt.Printf("  Item:     %s\n", sug.Item)
	fmt.Printf("  Category: %s\n", sug.Category)
	fmt.Printf("  Amount:   %.2f\n", sug.Amount)
}

func runArchive(log zerolog.Logger) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	profile := fs.String("profile", "", "profile name")
	fs.Parse(os.Args[2:])

	if *profile == "" {
		log.Fatal().Msg("Error: --profile is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, cfg, _ := setup(ctx, log, *profile)

	if cfg.Archive.ProjectID == "" {
		log.Fatal().Msg("Error: BQ_PROJECT_ID is required for archiving")
	}

	records, err := svc.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list receipts")
	}

	mirror, err := archive.NewMirror(ctx, cfg.Archive.ProjectID, cfg.Archive.Dataset, cfg.Archive.Table)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer mirror.Close()

	n, err := mirror.Archive(ctx, *profile, records)
	if err != nil {
		log.Fatal().Err(err).Msg("Archive failed")
	}

	fmt.Printf("Archived %d receipts from %s to %s.%s\n", n, *profile, cfg.Archive.Dataset, cfg.Archive.Table)
}
