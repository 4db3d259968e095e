package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file,
.env, WELFARE_CHAT_* variables and flags.`,
	RunE: func(c *cobra.Command, _ []string) error {
		loader := newLoader()
		cfg, err := loader.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		out := c.OutOrStdout()
		if f := loader.ConfigFile(); f != "" {
			fmt.Fprintf(out, "# %s\n", f)
		}
		_, err = out.Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations in lookup order",
	RunE: func(c *cobra.Command, _ []string) error {
		out := c.OutOrStdout()
		fmt.Fprintln(out, config.ProjectConfigName)
		user, err := config.UserConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, user)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
