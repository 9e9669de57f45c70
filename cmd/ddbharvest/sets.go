package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/twphl/ddb-harvester/pkg/harvester"
	"github.com/twphl/ddb-harvester/pkg/ui"
)

// setsCmd represents the sets command
var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List the sets the repository offers",
	Long: `List all sets of the configured repository, following resumption
tokens until the listing is exhausted. The selection flags (--sets,
--include-subsets) apply, so the output shows exactly what a harvest run
would process.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		h, err := harvester.New(cfg)
		if err != nil {
			ui.PrintError("Failed to initialize harvester", err.Error())
			os.Exit(1)
		}

		sets, err := h.Sets(context.Background())
		if err != nil {
			ui.PrintError("Failed to list sets", err.Error())
			os.Exit(1)
		}

		for _, set := range sets {
			fmt.Printf("%s\t%s\n", set.Spec, set.Name)
		}
		ui.PrintInfo("Total sets", fmt.Sprintf("%d", len(sets)))
		return nil
	},
}

// identifyCmd represents the identify command
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Show the repository self-description",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		h, err := harvester.New(cfg)
		if err != nil {
			ui.PrintError("Failed to initialize harvester", err.Error())
			os.Exit(1)
		}

		info, err := h.Identify(context.Background())
		if err != nil {
			ui.PrintError("Identify failed", err.Error())
			os.Exit(1)
		}

		ui.PrintInfo("Repository", info.RepositoryName)
		ui.PrintInfo("Base URL", info.BaseURL)
		ui.PrintInfo("Protocol", info.ProtocolVersion)
		ui.PrintInfo("Earliest datestamp", info.EarliestDatestamp)
		ui.PrintInfo("Deleted records", info.DeletedRecord)
		ui.PrintInfo("Granularity", info.Granularity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setsCmd)
	rootCmd.AddCommand(identifyCmd)

	for _, cmd := range []*cobra.Command{setsCmd, identifyCmd} {
		cmd.Flags().StringVar(&endpointURL, "endpoint", "", "OAI-PMH endpoint base URL")
		cmd.Flags().StringVar(&metadataPrefix, "metadata-prefix", "", "metadata prefix to request")
	}
	setsCmd.Flags().StringSliceVar(&harvestSets, "sets", nil, "show only these setSpecs")
	setsCmd.Flags().BoolVar(&includeSubsets, "include-subsets", false, "also show colon-separated sub-collections")
}
