package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"isp-tracker/pkg/collector"
	"isp-tracker/pkg/config"
	"isp-tracker/pkg/database"
	"isp-tracker/pkg/scheduler"
)

var (
	debugFlag bool
	logger    *slog.Logger
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "isp-tracker",
	Short: "A collector that tracks ISP speed test results over time",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on the debug flag
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)

		cfg = config.FromEnv()
		logger.Info("Configuration loaded", "database", cfg.Redacted(), "interval", cfg.Interval)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the collector: one primer cycle, then a cycle every interval",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("ISP tracker collector starting up")

		service := collector.NewService(cfg, logger)
		sched := scheduler.New(cfg.Interval, logger)

		logger.Info("Job scheduled", "interval", cfg.Interval)
		sched.Run(cmd.Context(), service.RunCycle)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single measure-and-store cycle and exit",
	Run: func(cmd *cobra.Command, args []string) {
		service := collector.NewService(cfg, logger)
		service.RunCycle(cmd.Context())
	},
}

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Create the tracker schema and result table if missing",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := database.NewDB(cfg)
		if err != nil {
			logger.Error("Error connecting to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.InitSchema(cmd.Context()); err != nil {
			logger.Error("Error initializing schema", "error", err)
			os.Exit(1)
		}
		logger.Info("Schema initialized")
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent [count]",
	Short: "Print the most recent stored results",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		count := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				logger.Error("Invalid count value", "value", args[0])
				os.Exit(1)
			}
			count = n
		}

		db, err := database.NewDB(cfg)
		if err != nil {
			logger.Error("Error connecting to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		results, err := db.RecentResults(cmd.Context(), count)
		if err != nil {
			logger.Error("Error fetching results", "error", err)
			os.Exit(1)
		}

		for _, r := range results {
			fmt.Printf("%s  DL %.2f Mbps  UL %.2f Mbps  ping %.1f ms  %s (%s)\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.DownloadMbps, r.UploadMbps, r.PingMs,
				r.ServerName, r.ServerLocation)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(initSchemaCmd)
	rootCmd.AddCommand(recentCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
