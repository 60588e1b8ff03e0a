// Package migrate implements the main migration command: load, reconcile,
// report and upload.
package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/grijalva10/insurance-policy-migration/cmd/root"
	"github.com/grijalva10/insurance-policy-migration/internal/amsclient"
	"github.com/grijalva10/insurance-policy-migration/internal/csvsource"
	"github.com/grijalva10/insurance-policy-migration/internal/githubsync"
	"github.com/grijalva10/insurance-policy-migration/internal/processor"
	"github.com/grijalva10/insurance-policy-migration/internal/refdata"
	"github.com/grijalva10/insurance-policy-migration/internal/report"
)

var (
	dryRun       bool
	noCache      bool
	skipAMSFetch bool
	pushBackup   bool

	// Cmd is the migrate command
	Cmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run the full migration pipeline over the input directory.",
		Long: `Loads every CSV export from the input directory, reconciles each record
against the reference mappings, writes classification reports and uploads new
policies to the AMS unless --dry-run is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config supplies the defaults; an explicit flag wins.
			if !cmd.Flags().Changed("dry-run") {
				dryRun = root.Cfg.Migration.DryRun
			}
			if !cmd.Flags().Changed("skip-ams-fetch") {
				skipAMSFetch = root.Cfg.Migration.SkipAMSFetch
			}
			return run(cmd.Context())
		},
	}
)

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Run without uploading to the AMS")
	Cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore cached AMS data")
	Cmd.Flags().BoolVar(&skipAMSFetch, "skip-ams-fetch", false, "Skip fetching reference data from the AMS")
	Cmd.Flags().BoolVar(&pushBackup, "push", false, "Push reports to the backup GitHub repository")
}

func run(ctx context.Context) error {
	cfg := root.Cfg
	log := root.Log
	log.Info("Starting insurance policy migration")

	// Reference data is loaded in full before any record is processed. A
	// missing mapping file aborts the run.
	maps, err := refdata.NewStore(cfg.Data.MappingsDir).Load()
	if err != nil {
		return fmt.Errorf("cannot start migration: %w", err)
	}

	aliases, err := csvsource.LoadColumnAliases(cfg.Data.ColumnAliases)
	if err != nil {
		return err
	}

	records, err := csvsource.ReadDir(cfg.Data.InputDir, aliases)
	if err != nil {
		return err
	}

	client := amsclient.New(amsclient.Options{
		BaseURL:          cfg.AMS.APIURL,
		Token:            cfg.AMS.Token,
		PageSize:         cfg.AMS.PageSize,
		MaxRetries:       cfg.AMS.MaxRetries,
		RetryDelay:       time.Duration(cfg.AMS.RetryDelaySecs) * time.Second,
		CacheDir:         cfg.Data.CacheDir,
		UseDiskCache:     cfg.Migration.UseCache && !noCache,
		CacheTTL:         time.Duration(cfg.AMS.CacheTTLMinutes) * time.Minute,
		UploadWorkers:    cfg.AMS.UploadWorkers,
		UploadsPerSecond: cfg.AMS.UploadsPerSecond,
	})

	rates := map[string]decimal.Decimal{}
	existingKeys := map[string]bool{}
	if !skipAMSFetch {
		carriers, err := client.FetchCarriers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load carrier commission rates: %w", err)
		}
		rates = amsclient.RateMap(carriers)

		existingKeys, err = client.FetchExistingPolicyKeys(ctx)
		if err != nil {
			return fmt.Errorf("failed to load existing policy keys: %w", err)
		}
	}

	tracker := refdata.NewTracker()
	proc := processor.New(maps, tracker, rates, decimal.NewFromFloat(cfg.Migration.DefaultCommissionRate))
	result := proc.Process(records, existingKeys)

	ledgerPath := filepath.Join(cfg.Data.MappingsDir, refdata.UnmatchedValuesFile)
	ledger, err := tracker.MergeAndPersist(ledgerPath, maps)
	if err != nil {
		return err
	}

	if err := report.NewWriter(cfg.Data.ReportsDir).WriteAll(result, ledger); err != nil {
		return err
	}

	if dryRun {
		log.Info("Dry run: skipping AMS upload")
	} else {
		upload := client.UploadPolicies(ctx, result.New)
		if len(upload.Failed) > 0 {
			log.WithField("failed", upload.Failed).Warn("Some policies failed to upload")
		}
	}

	if pushBackup {
		if cfg.GitHub.Token == "" {
			log.Warn("Skipping GitHub push: no token configured")
		} else {
			syncer := githubsync.New(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Branch)
			if err := syncer.PushReports(ctx, cfg.Data.ReportsDir, ""); err != nil {
				log.WithError(err).Error("Failed to push reports to GitHub")
			}
		}
	}

	log.Info("Migration completed")
	return nil
}
