package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/couponlens/internal/project"
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/survey"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

// datasetPath picks the survey file: the positional argument, then the
// project's dataset, then data_path from config.
func datasetPath(args []string, p *project.Project) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if p != nil && p.Dataset != "" {
		return p.Dataset, nil
	}
	if cfg != nil && cfg.DataPath != "" {
		return cfg.DataPath, nil
	}
	return "", errors.New("no dataset: pass a file or set data_path")
}

func loadOptions() (survey.LoadOptions, error) {
	opt := survey.LoadOptions{}
	if cfg == nil {
		return opt, nil
	}
	d, err := cfg.DelimiterRune()
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	opt.Strict = cfg.Strict
	return opt, nil
}

func cleanPolicy() (survey.CleanPolicy, error) {
	p := survey.DefaultCleanPolicy()
	if cfg == nil {
		return p, nil
	}
	p.Ignore = cfg.DropColumns
	p.Dedupe = cfg.Dedupe
	var err error
	if cfg.NumericMissing != "" {
		if p.Numeric, err = survey.ParseMissingPolicy(cfg.NumericMissing); err != nil {
			return p, fmt.Errorf("numeric_missing: %w", err)
		}
	}
	if cfg.CategoricalMissing != "" {
		if p.Categorical, err = survey.ParseMissingPolicy(cfg.CategoricalMissing); err != nil {
			return p, fmt.Errorf("categorical_missing: %w", err)
		}
	}
	return p, nil
}

// loadRawTable reads the survey without cleaning it.
func loadRawTable(path string) (*survey.Table, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	t, rep, err := survey.LoadFile(path, survey.CouponSchema(), opt)
	if err != nil {
		return nil, err
	}
	if len(rep.Extra) > 0 {
		logger.Warn("ignoring columns not in the survey schema", zap.Strings("columns", rep.Extra))
	}
	for _, fe := range rep.Issues {
		logger.Debug("unparsable field", zap.Error(fe))
	}
	if len(rep.Issues) > 0 {
		logger.Warn("fields treated as missing", zap.Int("count", len(rep.Issues)))
	}
	logger.Info("loaded survey", zap.String("file", rep.Name), zap.Int("rows", rep.Rows))
	return t, nil
}

// loadCleanTable reads the survey and applies the configured cleaning policy.
func loadCleanTable(path string) (*survey.Table, *survey.CleanReport, error) {
	raw, err := loadRawTable(path)
	if err != nil {
		return nil, nil, err
	}
	pol, err := cleanPolicy()
	if err != nil {
		return nil, nil, err
	}
	return survey.Clean(raw, pol, logger)
}

// narrow restricts t to the given coupon types and filters.
func narrow(t *survey.Table, coupons, wheres []string) (*survey.Table, segment.Predicate, error) {
	if len(coupons) > 0 {
		col, _, err := t.Schema().Lookup("coupon")
		if err != nil {
			return nil, nil, err
		}
		for _, c := range coupons {
			if !col.InDomain(c) {
				return nil, nil, &survey.SchemaError{Column: "coupon", Value: c, Reason: "is not a coupon type"}
			}
		}
		t = t.CouponIn(coupons...)
	}
	if len(wheres) == 0 {
		return t, segment.All(), nil
	}
	p, err := segment.ParseWheres(wheres)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Validate(t.Schema()); err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

func defaultProjectsDir() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.ProjectsDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".couponlens", "projects")
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = strings.TrimPrefix(dir, "~")
		dir = strings.TrimPrefix(dir, string(os.PathSeparator))
		dir = strings.TrimPrefix(dir, "/")
		dir = filepath.Join(home, dir)
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("project name is required")
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// openProject loads the named project, or returns nil when name is empty.
func openProject(name string) (*project.Project, error) {
	if name == "" {
		return nil, nil
	}
	dir, err := resolveProjectDirByName(name)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(dir)
}
