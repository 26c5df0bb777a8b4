package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storematch/internal/balance"
	"github.com/storematch/internal/config"
	"github.com/storematch/internal/db"
	"github.com/storematch/internal/engine"
	"github.com/storematch/internal/ingest"
	"github.com/storematch/internal/report"
	"github.com/storematch/internal/store"
	"github.com/storematch/internal/web"
)

func main() {
	config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:   "storematch",
		Short: "Submission-to-store resolution engine",
		Long:  `Attaches inspection-form submissions to canonical store records and balances per-store quotas`,
	}

	rootCmd.AddCommand(createResolveCmd())
	rootCmd.AddCommand(createReportCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// runPipeline loads inputs, runs the cascade and the quota balancer.
// Bad input files and directory validation failures are fatal;
// unresolved submissions and residual conflicts are not.
func runPipeline(storesPath, subsPath, denylistPath string) (*engine.Result, *store.Directory, error) {
	directory, err := store.LoadDirectory(storesPath)
	if err != nil {
		return nil, nil, err
	}

	subs, err := ingest.LoadSubmissions(subsPath)
	if err != nil {
		return nil, nil, err
	}

	denylist, err := loadDenylist(denylistPath)
	if err != nil {
		return nil, nil, err
	}

	settings := config.LoadResolver()
	eng := engine.New(directory, engine.Options{
		GeoRadiusKm:   settings.GeoRadiusKm,
		GeoTieBandKm:  settings.GeoTieBandKm,
		TextThreshold: settings.TextThreshold,
		TextMargin:    settings.TextMargin,
		PairWindow:    settings.PairWindow,
		Denylist:      denylist,
		Trace:         settings.Trace,
	})

	res := eng.ResolveBatch(subs)
	res = balance.BalanceQuotas(res, directory)
	return res, directory, nil
}

// loadDenylist reads one submitter name per line, blank lines and
// #-comments skipped.
func loadDenylist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read denylist: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}

func createResolveCmd() *cobra.Command {
	var storesPath, subsPath, denylistPath string
	var save bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a submission batch against the store directory",
		Long:  `Run the full cascade (coordinates, text, temporal pairing) and the quota balancer over one batch`,
		Run: func(cmd *cobra.Command, args []string) {
			res, directory, err := runPipeline(storesPath, subsPath, denylistPath)
			if err != nil {
				var confErr *store.ConfigurationError
				if errors.As(err, &confErr) {
					log.Fatalf("Configuration error: %v", err)
				}
				log.Fatalf("Failed to run resolution: %v", err)
			}

			fmt.Print(report.RenderSummary(res, directory))

			if save {
				conn, err := db.NewConnection()
				if err != nil {
					log.Fatalf("Failed to connect to database: %v", err)
				}
				defer conn.Close()

				if err := conn.SaveRun(res); err != nil {
					log.Fatalf("Failed to save run: %v", err)
				}
				fmt.Printf("Run %s saved\n", res.RunID)
			}
		},
	}

	cmd.Flags().StringVar(&storesPath, "stores", "stores.yaml", "Store directory YAML file")
	cmd.Flags().StringVar(&subsPath, "submissions", "submissions.json", "Submission batch JSON file")
	cmd.Flags().StringVar(&denylistPath, "denylist", "", "File of submitter names whose text tags are ignored")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the run to Postgres")
	return cmd
}

func createReportCmd() *cobra.Command {
	var storesPath, subsPath, denylistPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the audit trail for a resolved batch",
		Run: func(cmd *cobra.Command, args []string) {
			res, directory, err := runPipeline(storesPath, subsPath, denylistPath)
			if err != nil {
				log.Fatalf("Failed to run resolution: %v", err)
			}

			fmt.Print(report.RenderSummary(res, directory))

			fmt.Printf("\nAudit trail (%d entries):\n", len(res.Audit.Entries()))
			for _, e := range res.Audit.Entries() {
				fmt.Printf("  [%s] %s: %s\n", e.Event, e.SubmissionID, e.Detail)
			}
		},
	}

	cmd.Flags().StringVar(&storesPath, "stores", "stores.yaml", "Store directory YAML file")
	cmd.Flags().StringVar(&subsPath, "submissions", "submissions.json", "Submission batch JSON file")
	cmd.Flags().StringVar(&denylistPath, "denylist", "", "File of submitter names whose text tags are ignored")
	return cmd
}

func createServeCmd() *cobra.Command {
	var storesPath, subsPath, denylistPath, host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Resolve a batch and serve the result over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			res, directory, err := runPipeline(storesPath, subsPath, denylistPath)
			if err != nil {
				log.Fatalf("Failed to run resolution: %v", err)
			}

			server := web.NewServer(host, port, res, directory)
			if err := server.Start(); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&storesPath, "stores", "stores.yaml", "Store directory YAML file")
	cmd.Flags().StringVar(&subsPath, "submissions", "submissions.json", "Submission batch JSON file")
	cmd.Flags().StringVar(&denylistPath, "denylist", "", "File of submitter names whose text tags are ignored")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	return cmd
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			conn, err := db.NewConnection()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer conn.Close()

			fmt.Println("Database connection successful!")

			var count int
			err = conn.DB.QueryRow("SELECT COUNT(*) FROM resolution_run").Scan(&count)
			if err != nil {
				log.Printf("Error counting resolution_run records: %v", err)
			} else {
				fmt.Printf("Resolution runs stored: %d\n", count)
			}
		},
	}
}
