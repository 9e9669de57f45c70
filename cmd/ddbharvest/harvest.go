package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/twphl/ddb-harvester/pkg/config"
	"github.com/twphl/ddb-harvester/pkg/harvester"
	"github.com/twphl/ddb-harvester/pkg/logger"
	"github.com/twphl/ddb-harvester/pkg/ui"
)

var (
	// Shared harvest/batch flags
	endpointURL    string
	metadataPrefix string
	saveDir        string
	workers        int
	maxRetries     int
	rateLimit      int
	harvestSets    []string
	includeSubsets bool
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Fetch every record individually across a worker pool",
	Long: `Enumerate all sets and record identifiers, then fetch each record
with its own GetRecord request, distributed across a fixed-size worker pool.

Records that are already on disk are skipped, so an interrupted run can
simply be started again. A record that still fails after the retry budget
is logged and skipped; the run continues.`,
	Example: `  # Harvest everything with default settings
  ddbharvest harvest

  # Harvest two specific sets into a custom directory
  ddbharvest harvest --sets abc123,def456 --save-dir /data/ddb

  # Harvest a different repository
  ddbharvest harvest --endpoint https://export.arxiv.org/oai2 --metadata-prefix oai_dc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvest(false)
	},
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Stream batched record listings per set",
	Long: `Enumerate all sets, then stream paginated ListRecords responses per
set, following resumption tokens. Each record of a page is written as its
own file.

This mode needs one request per page instead of one per record, but a page
that fails past the retry budget abandons the rest of that set's listing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvest(true)
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(batchCmd)

	for _, cmd := range []*cobra.Command{harvestCmd, batchCmd} {
		cmd.Flags().StringVar(&endpointURL, "endpoint", "", "OAI-PMH endpoint base URL")
		cmd.Flags().StringVar(&metadataPrefix, "metadata-prefix", "", "metadata prefix to request")
		cmd.Flags().StringVarP(&saveDir, "save-dir", "o", "", "directory to write record files to")
		cmd.Flags().IntVar(&maxRetries, "max-retries", 10, "maximum number of retry attempts per request")
		cmd.Flags().IntVar(&rateLimit, "rate-limit", 120, "requests per minute")
		cmd.Flags().StringSliceVar(&harvestSets, "sets", nil, "harvest only these setSpecs (default: all top-level sets)")
		cmd.Flags().BoolVar(&includeSubsets, "include-subsets", false, "also harvest colon-separated sub-collections")
	}

	harvestCmd.Flags().IntVar(&workers, "workers", 8, "number of concurrent record fetchers")
}

func runHarvest(batch bool) error {
	cfg := loadConfig()

	h, err := harvester.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize harvester", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(map[string]interface{}{
		"endpoint": cfg.Endpoint.BaseURL,
		"prefix":   cfg.Endpoint.MetadataPrefix,
		"batch":    batch,
	}).Info("Starting harvest")

	if batch {
		err = h.HarvestBatches(ctx)
	} else {
		err = h.HarvestRecords(ctx)
	}
	if err != nil {
		logger.WithError(err).Error("Harvest failed")
		ui.PrintError("HARVEST FAILED", err.Error())
		os.Exit(1)
	}

	logger.Info("Harvest completed successfully")
	ui.PrintSuccess("Harvest completed successfully")
	return nil
}

// loadConfig assembles the configuration from flags, env and file, and
// initializes the logger. Exits on invalid configuration.
func loadConfig() *config.Config {
	flags := make(map[string]interface{})
	if endpointURL != "" {
		flags["endpoint"] = endpointURL
	}
	if metadataPrefix != "" {
		flags["metadata-prefix"] = metadataPrefix
	}
	if saveDir != "" {
		flags["save-dir"] = saveDir
	}
	if workers != 8 {
		flags["workers"] = workers
	}
	if maxRetries != 10 {
		flags["max-retries"] = maxRetries
	}
	if rateLimit != 120 {
		flags["rate-limit"] = rateLimit
	}
	if len(harvestSets) > 0 {
		flags["sets"] = harvestSets
	}
	if includeSubsets {
		flags["include-subsets"] = true
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	return cfg
}
