package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/twphl/ddb-harvester/pkg/config"
	"github.com/twphl/ddb-harvester/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage ddbharvest configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (DDBHARVEST_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'ddbharvest.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
command line flags, environment variables, configuration file and defaults.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "ddbharvest.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# ddbharvest configuration file
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with DDBHARVEST_
# For example: DDBHARVEST_ENDPOINT, DDBHARVEST_SAVE_DIR

# OAI-PMH endpoint
endpoint:
  # Base URL of the repository
  base_url: "https://oai.deutsche-digitale-bibliothek.de/oai"

  # Metadata prefix to request
  metadata_prefix: "ddb"

  # User agent string (optional, leave empty for default)
  user_agent: ""

# Harvest behaviour
harvest:
  # Number of concurrent record fetchers (harvest mode only)
  # Range: 1-32
  workers: 8

  # Maximum number of retry attempts per request
  max_retries: 10

  # Harvest only these setSpecs (empty: all top-level sets)
  sets: []

  # Also harvest colon-separated sub-collections
  include_subsets: false

# Output
output:
  # Directory to write record files to
  save_dir: "./harvest"

  # Re-fetch records that are already on disk
  overwrite_existing: false

# Rate limiting
rate_limit:
  # Requests per minute across all workers
  requests_per_minute: 120

  # Maximum burst of requests before the limiter throttles
  burst_size: 10

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, leave empty to log to stdout only)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the endpoint and save directory if needed")
	fmt.Println("2. Run 'ddbharvest config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'ddbharvest harvest'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (DDBHARVEST_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		ui.PrintError("No configuration file specified", "Use the --config flag")
		os.Exit(1)
	}

	ui.PrintInfo("Validating configuration", configFile)

	if _, err := config.Load(configFile, nil); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
}
