package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	logLevel   string
	logFormat  string
	noColor    bool
	lang       string
	backendURL string
	uiMode     string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "welfare-chat",
	Short: "Terminal client for the welfare information assistant",
	Long: `welfare-chat asks the welfare information assistant about support
programs and shows its answers as cards and formatted text. It handles
clarifying questions, long-running answers, "show more" paging and
answer feedback.

Running 'welfare-chat' without arguments starts the interactive chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion injects build information.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./.welfare-chat.yaml or ~/.config/welfare-chat/config.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (auto, text, json)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&lang, "lang", "l", "", "answer language (ko, en, vi, zh)")
	pf.StringVar(&backendURL, "backend", "", "assistant API base URL")
	pf.StringVar(&uiMode, "ui", "", "front end (auto, tui, plain)")

	bindRootFlags()
}

// bindRootFlags binds the persistent flags to viper keys.
func bindRootFlags() {
	pf := rootCmd.PersistentFlags()
	// Bind flags to viper (errors are nil when flag exists)
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("ui.no_color", pf.Lookup("no-color"))
	_ = viper.BindPFlag("chat.lang", pf.Lookup("lang"))
	_ = viper.BindPFlag("backend.base_url", pf.Lookup("backend"))
	_ = viper.BindPFlag("ui.mode", pf.Lookup("ui"))
}
