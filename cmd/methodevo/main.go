package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"methodevo/internal/config"
	"methodevo/internal/extractor"
	"methodevo/internal/git"
	"methodevo/internal/ingest"
	"methodevo/internal/pairdiff"
	"methodevo/internal/report"
	"methodevo/internal/storage"
	"methodevo/internal/tracker"
)

var (
	rootCmd = &cobra.Command{
		Use:   "methodevo",
		Short: "Track method evolution across extracted snapshots",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	trackCmd.Flags().StringP("input", "i", "", "Directory containing code_blocks_* snapshot files")
	trackCmd.Flags().StringP("output", "o", "", "Output directory (defaults to config output.dir)")
	trackCmd.Flags().String("db", "", "Optional SQLite database to persist tracking results")
	trackCmd.Flags().Bool("similarity", false, "Enable similarity matching regardless of config")
	_ = trackCmd.MarkFlagRequired("input")

	reportCmd.Flags().StringP("input", "i", "", "Path to method_tracking_details.csv")
	reportCmd.Flags().StringP("output", "o", "", "Output directory (defaults to config output.dir)")
	_ = reportCmd.MarkFlagRequired("input")

	extractCmd.Flags().StringP("output", "o", "", "Output directory (defaults to config output.dir)")
	extractCmd.Flags().String("rev", "", "Revision tag for the snapshot (defaults to git HEAD)")

	pairdiffCmd.Flags().StringP("input", "i", "", "Directory containing results_*.csv pair snapshots")
	pairdiffCmd.Flags().StringP("output", "o", "", "Output directory (defaults to config output.dir)")
	pairdiffCmd.Flags().Bool("emit-lists", false, "Emit detailed added/deleted/persisted pair lists")
	_ = pairdiffCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(pairdiffCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Match methods across adjacent snapshots and classify transitions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		inputDir, _ := cmd.Flags().GetString("input")
		outputDir := outputDirOrDefault(cmd, cfg)
		if sim, _ := cmd.Flags().GetBool("similarity"); sim {
			cfg.Tracking.UseSimilarity = true
		}

		mc, err := cfg.MatcherConfig()
		if err != nil {
			log.Fatalf("Invalid tracking configuration: %v", err)
		}

		fmt.Printf("📂 Loading snapshots from %s\n", inputDir)
		snapshots, err := ingest.LoadDir(inputDir)
		if err != nil {
			log.Fatalf("Failed to load snapshots: %v", err)
		}
		fmt.Printf("  -> %d snapshots loaded\n", len(snapshots))

		tr, err := tracker.New(mc, cfg.Tracking.Workers)
		if err != nil {
			log.Fatalf("Failed to create tracker: %v", err)
		}

		fmt.Println("🔗 Tracking methods across adjacent snapshots...")
		transitions, err := tr.Track(context.Background(), snapshots)
		if err != nil {
			log.Fatalf("Tracking failed: %v", err)
		}
		if len(transitions) == 0 {
			fmt.Println("Nothing to do: need at least 2 snapshots.")
			return
		}

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}

		summaryPath := filepath.Join(outputDir, "method_tracking_summary.csv")
		if err := report.WriteSummary(summaryPath, transitions); err != nil {
			log.Fatalf("Failed to write summary: %v", err)
		}
		detailsPath := filepath.Join(outputDir, "method_tracking_details.csv")
		if err := report.WriteDetails(detailsPath, report.Rows(transitions)); err != nil {
			log.Fatalf("Failed to write details: %v", err)
		}

		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			store, err := storage.NewSQLiteStore(dbPath)
			if err != nil {
				log.Fatalf("Failed to open database: %v", err)
			}
			defer store.Close()
			if err := store.SaveTransitions(context.Background(), transitions); err != nil {
				log.Fatalf("Failed to persist transitions: %v", err)
			}
			fmt.Printf("💾 Results persisted to %s\n", dbPath)
		}

		fmt.Printf("✅ %d transitions written to %s\n", len(transitions), outputDir)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analyze evolution patterns from tracking details",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		detailsPath, _ := cmd.Flags().GetString("input")
		outputDir := outputDirOrDefault(cmd, cfg)

		fmt.Printf("📂 Loading tracking details from %s\n", detailsPath)
		rows, err := report.ReadDetails(detailsPath)
		if err != nil {
			log.Fatalf("Failed to read details: %v", err)
		}

		evolutions := report.BuildEvolutions(rows)
		stats := report.Summarize(evolutions)

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		reportPath := filepath.Join(outputDir, "evolution_pattern_report.txt")
		if err := report.WriteReport(reportPath, stats); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("✅ %d method lifecycles analyzed, report written to %s\n", stats.TotalMethods, reportPath)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [path]",
	Short: "Extract a method snapshot from a Go source tree",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		outputDir := outputDirOrDefault(cmd, cfg)

		revision, _ := cmd.Flags().GetString("rev")
		if revision == "" {
			revision, err = git.Head(root)
			if err != nil {
				log.Fatalf("No --rev given and git HEAD unavailable: %v", err)
			}
		}

		ext, err := extractor.NewExtractor("go")
		if err != nil {
			log.Fatalf("Failed to create extractor: %v", err)
		}

		fmt.Printf("📂 Extracting methods from %s (revision %s)\n", root, revision)
		snap, err := ext.SnapshotFromDir(root, revision)
		if err != nil {
			log.Fatalf("Extraction failed: %v", err)
		}

		path, err := ingest.WriteSnapshot(outputDir, snap)
		if err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
		fmt.Printf("✅ %d methods written to %s\n", snap.Len(), path)
	},
}

var pairdiffCmd = &cobra.Command{
	Use:   "pairdiff",
	Short: "Diff similar-method pair sets between adjacent snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		inputDir, _ := cmd.Flags().GetString("input")
		outputDir := outputDirOrDefault(cmd, cfg)
		emitLists, _ := cmd.Flags().GetBool("emit-lists")
		if cfg.Output.EmitLists {
			emitLists = true
		}

		if err := pairdiff.Analyze(inputDir, outputDir, emitLists); err != nil {
			log.Fatalf("Pair diff failed: %v", err)
		}
		fmt.Println("✅ Pair diff complete.")
	},
}

func outputDirOrDefault(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("output"); dir != "" {
		return dir
	}
	return cfg.Output.Dir
}
