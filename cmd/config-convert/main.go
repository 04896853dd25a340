package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/gardensim/pkg/config"
	"go.uber.org/zap"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
		reverse    = flag.Bool("reverse", false, "Export the SQLite database back to YAML instead")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <garden.yaml> -sqlite <garden.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *reverse {
		if err := exportYAML(*sqliteFile, *yamlFile, *force); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %s to %s\n", *sqliteFile, *yamlFile)
		return
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
	}

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration...\n")
	configData, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}
	if err := configData.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating YAML configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  Loaded %d beds, %d species\n", len(configData.Beds), len(configData.Species))

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	// Remove existing SQLite file if force is specified
	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Creating SQLite database...\n")
	if err := writeSQLite(*sqliteFile, configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite database: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func writeSQLite(dbPath string, configData *config.ConfigData) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite provider: %w", err)
	}
	defer provider.Close()

	if err := provider.CreateSchema(zap.NewNop().Sugar()); err != nil {
		return err
	}

	fmt.Printf("  Inserting %d beds...\n", len(configData.Beds))
	fmt.Printf("  Inserting %d species...\n", len(configData.Species))
	fmt.Printf("  Inserting storage configuration...\n")

	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("  Configuration successfully inserted into database\n")
	return nil
}

func exportYAML(dbPath, yamlPath string, force bool) error {
	if _, err := os.Stat(yamlPath); err == nil && !force {
		return fmt.Errorf("YAML file already exists: %s (use -force to overwrite)", yamlPath)
	}

	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite provider: %w", err)
	}
	defer provider.Close()

	configData, err := provider.LoadConfig()
	if err != nil {
		return err
	}
	out, err := config.MarshalYAML(configData)
	if err != nil {
		return err
	}
	return os.WriteFile(yamlPath, out, 0644)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("Beds (%d):\n", len(configData.Beds))
	for _, bed := range configData.Beds {
		fmt.Printf("  - %s (%.4f, %.4f) %d plants, %d trees, %d structures\n",
			bed.ID, bed.Latitude, bed.Longitude, len(bed.Plants), len(bed.Trees), len(bed.Structures))
	}

	fmt.Printf("\nSpecies (%d):\n", len(configData.Species))
	for _, sp := range configData.Species {
		fmt.Printf("  - %s\n", sp.ID)
	}

	fmt.Printf("\nStorage Backends:\n")
	if configData.Storage.TimescaleDB != nil {
		fmt.Printf("  - TimescaleDB: %s\n", configData.Storage.TimescaleDB.ConnectionString)
	}
	if configData.Storage.SQLite != nil {
		fmt.Printf("  - SQLite: %s\n", configData.Storage.SQLite.Path)
	}
	if configData.Storage.CSV != nil {
		fmt.Printf("  - CSV: %s\n", configData.Storage.CSV.Path)
	}
}
