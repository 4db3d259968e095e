package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/config"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and backend reachability",
	Long:  "Verify the configuration, the built-in locale strings and that the assistant API answers.",
	RunE:  runDoctor,
}

var doctorTimeout time.Duration

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 5*time.Second, "timeout for each check")
}

func runDoctor(c *cobra.Command, _ []string) error {
	ctx, stop := signalContext(c.Context())
	defer stop()
	out := c.OutOrStdout()

	loader := newLoader()
	cfg, loadErr := loader.Load()
	if cfg == nil {
		cfg = config.Default()
	}
	cfgDetail := "defaults"
	if f := loader.ConfigFile(); f != "" {
		cfgDetail = f
	}

	probes := []diagnostics.Probe{
		diagnostics.ValidateProbe("config", cfgDetail, func() error {
			if loadErr != nil {
				return loadErr
			}
			return config.ValidateConfig(cfg)
		}),
		diagnostics.ValidateProbe("locales", fmt.Sprint(i18n.Supported()), func() error {
			_, err := i18n.DefaultTable()
			return err
		}),
	}

	client, err := protocol.NewClient(cfg.Backend.BaseURL,
		protocol.WithTimeout(doctorTimeout),
		protocol.WithUserAgent(userAgent(cfg)),
		protocol.WithLogger(logging.NewNop()),
	)
	if err != nil {
		probes = append(probes, diagnostics.ValidateProbe("backend", "", func() error { return err }))
	} else {
		probes = append(probes, diagnostics.BackendProbe(cfg.Backend.BaseURL, client.Health))
	}
	probes = append(probes, diagnostics.HostProbe("."))

	fmt.Fprintln(out, "Checking welfare-chat...")
	fmt.Fprintln(out)
	report := diagnostics.Run(ctx, doctorTimeout, probes...)
	for _, check := range report {
		fmt.Fprintf(out, "  %s %-8s %s\n", check.Status.Symbol(), check.Name, check.Detail)
	}

	if crash, err := diagnostics.LatestCrash(diagnostics.DefaultCrashDir()); err == nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Last crash: %s (%s)\n", crash.Timestamp.Format(time.RFC3339), crash.PanicValue)
	}

	fmt.Fprintln(out)
	if report.Failed() {
		return errors.New("some checks failed")
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}
