package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/couponlens/internal/config"
	"github.com/KaramelBytes/couponlens/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string

	// Loaded configuration and logger, set before every command runs
	cfg      *cfgpkg.Global
	logger   = zap.NewNop()
	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "couponlens",
	Short: "couponlens: acceptance-rate segmentation for the in-vehicle coupon survey",
	Long: `couponlens loads the UCI in-vehicle coupon recommendation survey, cleans it,
and measures how often drivers accept coupons across segments of the population.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	}
	cobra.OnFinalize(closeLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.couponlens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console|json (overrides config)")
}

func loadConfig() error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if f.Changed("log-format") {
		c.LogFormat = logFormat
	}
	l, closeFn, err := logging.New(c.LogLevel, c.LogFormat, c.LogOutput)
	if err != nil {
		return err
	}
	closeLogger()
	cfg = c
	logger, closeLog = l, closeFn
	return nil
}

// closeLogger flushes the logger and closes its output file, if any.
func closeLogger() {
	_ = logger.Sync()
	closeLog()
	logger, closeLog = zap.NewNop(), func() {}
}
