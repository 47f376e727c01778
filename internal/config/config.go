package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. COUPONLENS_LOG_LEVEL.
const EnvPrefix = "COUPONLENS"

// Global configuration structure.
type Global struct {
	// Input
	DataPath  string `mapstructure:"data_path" yaml:"data_path"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	Strict    bool   `mapstructure:"strict" yaml:"strict"`

	// Cleaning
	DropColumns        []string `mapstructure:"drop_columns" yaml:"drop_columns"`
	NumericMissing     string   `mapstructure:"numeric_missing" yaml:"numeric_missing"`
	CategoricalMissing string   `mapstructure:"categorical_missing" yaml:"categorical_missing"`
	Dedupe             bool     `mapstructure:"dedupe" yaml:"dedupe"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogOutput string `mapstructure:"log_output" yaml:"log_output"`

	// Output
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
	Charts       bool   `mapstructure:"charts" yaml:"charts"`
	ChartFormat  string `mapstructure:"chart_format" yaml:"chart_format"`
	ProjectsDir  string `mapstructure:"projects_dir" yaml:"projects_dir"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"data_path", "delimiter", "strict",
	"drop_columns", "numeric_missing", "categorical_missing", "dedupe",
	"log_level", "log_format", "log_output",
	"report_format", "charts", "chart_format", "projects_dir",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "data/coupons.csv")
	v.SetDefault("delimiter", "")
	v.SetDefault("strict", false)
	v.SetDefault("drop_columns", []string{"car"})
	v.SetDefault("numeric_missing", "impute")
	v.SetDefault("categorical_missing", "drop")
	v.SetDefault("dedupe", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_output", "stderr")
	v.SetDefault("report_format", "markdown")
	v.SetDefault("charts", false)
	v.SetDefault("chart_format", "png")
	v.SetDefault("projects_dir", "")
}

// Dir returns ~/.couponlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".couponlens"), nil
}

// Path returns cfgFile, or ~/.couponlens/config.yaml when it is empty.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.couponlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including a .env file in the working directory) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A missing .env is normal; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	path, err := Path(cfgFile)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		// the default file is optional; an explicit one is not
		if cfgFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve projects_dir default: ~/.couponlens/projects
	if c.ProjectsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	return &c, nil
}

// Set assigns key from its string form, validating booleans and lists.
func (c *Global) Set(key, value string) error {
	switch key {
	case "data_path":
		c.DataPath = value
	case "delimiter":
		c.Delimiter = value
	case "strict", "dedupe", "charts":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "strict":
			c.Strict = b
		case "dedupe":
			c.Dedupe = b
		default:
			c.Charts = b
		}
	case "drop_columns":
		c.DropColumns = splitList(value)
	case "numeric_missing":
		c.NumericMissing = value
	case "categorical_missing":
		c.CategoricalMissing = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	case "log_output":
		c.LogOutput = value
	case "report_format":
		c.ReportFormat = value
	case "chart_format":
		c.ChartFormat = value
	case "projects_dir":
		c.ProjectsDir = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or 0 to sniff from the
// file extension. "tab" and "\t" select a tab.
func (c *Global) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return r[0], nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
