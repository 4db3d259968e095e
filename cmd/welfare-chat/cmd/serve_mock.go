package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/mockbackend"
)

var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Run a local mock of the assistant API",
	Long: `Run a local mock of the assistant API backed by a small built-in
catalog of support programs. It answers clarifying questions, defers
searches to pollable jobs and stores feedback in SQLite.

Examples:
  # Serve on :8000 and keep feedback in memory
  welfare-chat serve-mock

  # Persist feedback and answer inline
  welfare-chat serve-mock --db feedback.db --no-defer`,
	RunE: runServeMock,
}

var serveMockNoDefer bool

func init() {
	rootCmd.AddCommand(serveMockCmd)

	f := serveMockCmd.Flags()
	f.String("addr", "", "address to listen on (default :8000)")
	f.String("db", "", "SQLite file for feedback (default: in memory)")
	f.BoolVar(&serveMockNoDefer, "no-defer", false, "answer searches inline instead of through jobs")
	f.Duration("job-delay", 0, "time before a deferred job completes")
	f.Int("rate-limit", 0, "chat requests per minute and client")
	bindServeMockFlags()
}

func bindServeMockFlags() {
	f := serveMockCmd.Flags()
	_ = viper.BindPFlag("mock.addr", f.Lookup("addr"))
	_ = viper.BindPFlag("mock.db_path", f.Lookup("db"))
	_ = viper.BindPFlag("mock.job_delay", f.Lookup("job-delay"))
	_ = viper.BindPFlag("mock.rate_limit", f.Lookup("rate-limit"))
}

func runServeMock(c *cobra.Command, _ []string) error {
	ctx, stop := signalContext(c.Context())
	defer stop()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := mockbackend.OpenFeedbackStore(cfg.Mock.DBPath)
	if err != nil {
		return fmt.Errorf("opening feedback store: %w", err)
	}
	defer store.Close()

	srv := mockbackend.NewServer(mockbackend.Config{
		DeferJobs: cfg.Mock.DeferJobs && !serveMockNoDefer,
		JobDelay:  cfg.Mock.JobDelay,
		RateLimit: cfg.Mock.RateLimit,
		RateBurst: cfg.Mock.RateBurst,
	}, mockbackend.WithLogger(logger), mockbackend.WithFeedbackStore(store))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Mock.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		counts, err := store.Count(context.Background())
		if err != nil {
			logger.Warn("counting feedback", "error", err)
			return nil
		}
		logger.Info("mock backend stopped", "feedback", counts, "jobs", srv.Jobs().Len())
		return nil
	})
	return g.Wait()
}
