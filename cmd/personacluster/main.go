package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjellvand/personacluster/internal/config"
	"github.com/kjellvand/personacluster/internal/database"
	"github.com/kjellvand/personacluster/internal/dataset"
	"github.com/kjellvand/personacluster/internal/features"
	"github.com/kjellvand/personacluster/internal/kmeans"
	"github.com/kjellvand/personacluster/internal/pipeline"
	"github.com/kjellvand/personacluster/internal/report"
	"github.com/kjellvand/personacluster/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "personacluster",
	Short:   "Cluster survey respondents into persona groups",
	Long:    "Personacluster cleans a survey CSV, encodes and scales its features, partitions respondents with k-means, and summarizes each cluster for persona construction.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(elbowCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("personacluster", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/personacluster/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to match your survey's column layout.")
		return nil
	},
}

// --- analyze command ---

var (
	analyzeK  int
	skipElbow bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the full pipeline: coerce -> encode -> scale -> elbow -> fit -> score -> profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		opts := pipeline.Options{K: analyzeK, SkipElbow: skipElbow}
		if !skipElbow {
			opts.PlotPath = filepath.Join(cfg.GetDataDir(), "elbow_plot.png")
		}

		p := pipeline.New(cfg, db)
		result := p.Run(args[0], opts)

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				return fmt.Errorf("%s: %w", step.Name, step.Err)
			}
			fmt.Printf("  %s\n", step.Summary)
		}

		fmt.Println()
		printSummaries(result)
		if opts.PlotPath != "" {
			fmt.Printf("\nElbow plot: %s (inspect it before trusting k=%d)\n", opts.PlotPath, effectiveK())
		}
		fmt.Printf("Saved as run %d. View it with 'personacluster serve'.\n", result.RunID)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeK, "k", "k", 0, "Cluster count (overrides config)")
	analyzeCmd.Flags().BoolVar(&skipElbow, "skip-elbow", false, "Skip the elbow sweep")
}

func effectiveK() int {
	if analyzeK > 0 {
		return analyzeK
	}
	return cfg.Clustering.K
}

func printSummaries(result *pipeline.Result) {
	fmt.Printf("Silhouette score: %.3f", result.Silhouette)
	if result.Silhouette > 0.5 {
		fmt.Println(" (clusters are well separated)")
	} else {
		fmt.Println(" (weak separation; re-evaluate features or k)")
	}

	fmt.Println("\nPersona profiles:")
	for _, s := range result.Summaries {
		fmt.Printf("  Cluster %d (%d respondents): ", s.Cluster, s.Size)
		var parts []string
		for _, m := range s.CategoricalModes {
			parts = append(parts, m)
		}
		fmt.Println(strings.Join(parts, ", "))
	}
	fmt.Println("\nFull statistics are in the stored report.")
}

// --- elbow command ---

var elbowOut string

var elbowCmd = &cobra.Command{
	Use:   "elbow [file]",
	Short: "Run only the cluster-count sweep and write the elbow plot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := dataset.ReadCSV(args[0])
		if err != nil {
			return err
		}
		ds, err := dataset.Coerce(table, dataset.Schema{
			IDColumn:       cfg.Survey.IDColumn,
			NumericColumns: cfg.Survey.NumericColumns,
			OrdinalColumn:  cfg.Survey.OrdinalColumn,
			OrdinalLevels:  cfg.Survey.OrdinalLevels,
			NominalColumns: cfg.Survey.NominalColumns,
		})
		if err != nil {
			return err
		}

		scaled := features.Standardize(features.Encode(ds))
		points, err := kmeans.Sweep(scaled.Rows, cfg.Clustering.KMax, kmeans.Config{
			MaxIter:  cfg.Clustering.MaxIter,
			Restarts: cfg.Clustering.Restarts,
			Seed:     cfg.Clustering.Seed,
		})
		if err != nil {
			return err
		}

		fmt.Println("k  inertia")
		for _, p := range points {
			fmt.Printf("%-2d %.2f\n", p.K, p.Inertia)
		}

		out := elbowOut
		if out == "" {
			out = filepath.Join(cfg.GetDataDir(), "elbow_plot.png")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := report.WriteElbowPlot(points, out); err != nil {
			return err
		}
		fmt.Printf("\nElbow plot saved to %s. Look for the bend to choose k.\n", out)
		return nil
	},
}

func init() {
	elbowCmd.Flags().StringVarP(&elbowOut, "out", "o", "", "Plot output path")
}

// --- runs command ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.GetAllRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs yet. Run 'personacluster analyze <file>' first.")
			return nil
		}

		fmt.Printf("%-4s %-30s %-11s %-3s %-10s %s\n", "ID", "Source", "Rows", "k", "Silhouette", "Created")
		for _, r := range runs {
			created := ""
			if r.CreatedAt != nil {
				created = *r.CreatedAt
			}
			fmt.Printf("%-4d %-30s %4d / %-4d %-3d %-10.3f %s\n",
				r.ID, r.SourceFile, r.RowsKept, r.RowsTotal, r.K, r.Silhouette, created)
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local run viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Serving runs from %s\n", db.Path())
		fmt.Printf("Starting viewer at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the viewer on")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "personacluster.db"))
}
