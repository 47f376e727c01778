package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/couponlens/internal/charts"
	cfgpkg "github.com/KaramelBytes/couponlens/internal/config"
	"github.com/KaramelBytes/couponlens/internal/logging"
	"github.com/KaramelBytes/couponlens/internal/study"
	"github.com/KaramelBytes/couponlens/internal/survey"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set couponlens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if err := validateSetting(key, val); err != nil {
			return err
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

// validateSetting rejects values that would only fail later, at load time.
func validateSetting(key, val string) error {
	var err error
	switch key {
	case "numeric_missing", "categorical_missing":
		_, err = survey.ParseMissingPolicy(val)
	case "report_format":
		_, err = study.ParseFormat(val)
	case "chart_format":
		_, err = charts.New(val)
	case "log_level", "log_format":
		lvl, format := cfg.LogLevel, cfg.LogFormat
		if key == "log_level" {
			lvl = val
		} else {
			format = val
		}
		_, err = logging.NewWriter(lvl, format, io.Discard)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
