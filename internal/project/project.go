package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/couponlens/internal/utils"
)

const (
	// FileName is the manifest written at the root of every project.
	FileName = "project.json"
)

// Project is an output workspace for analyses of one dataset.
type Project struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Dataset     string               `json:"dataset"`
	Artifacts   map[string]*Artifact `json:"artifacts"`
	Config      *ProjectConfig       `json:"config"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// ProjectConfig overrides global output settings; empty fields inherit.
type ProjectConfig struct {
	ReportFormat string `json:"report_format,omitempty"`
	ChartFormat  string `json:"chart_format,omitempty"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	now := time.Now()
	return &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Artifacts:   make(map[string]*Artifact),
		Config:      &ProjectConfig{},
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Artifacts == nil {
		p.Artifacts = make(map[string]*Artifact)
	}
	if p.Config == nil {
		p.Config = &ProjectConfig{}
	}
	p.rootDir = dir
	return &p, nil
}

// List loads every project directly under dir, sorted by name.
// Subdirectories without a project.json are skipped.
func List(dir string) ([]*Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}
	var out []*Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(sub, FileName)); err != nil {
			continue
		}
		p, err := LoadProject(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, FileName), data)
}

// SetDataset records the dataset file analyzed by this project.
func (p *Project) SetDataset(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve dataset: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("stat dataset: %w", err)
	}
	p.Dataset = abs
	p.UpdatedAt = time.Now()
	return nil
}

// Path resolves a project-relative path.
func (p *Project) Path(rel string) string { return filepath.Join(p.rootDir, rel) }

// WriteArtifact writes data under the project root and records it.
func (p *Project) WriteArtifact(rel, kind, description, runID string, data []byte) (*Artifact, error) {
	if err := utils.SafeWriteFile(p.Path(rel), data); err != nil {
		return nil, err
	}
	return p.AddArtifact(p.Path(rel), kind, description, runID)
}

// AddArtifact records an existing file inside the project root. A file
// already recorded at the same path is replaced.
func (p *Project) AddArtifact(path, kind, description, runID string) (*Artifact, error) {
	rel, err := filepath.Rel(p.rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("artifact %s is outside project %s", path, p.rootDir)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	if p.Artifacts == nil {
		p.Artifacts = make(map[string]*Artifact)
	}
	for id, a := range p.Artifacts {
		if a.Path == rel {
			delete(p.Artifacts, id)
		}
	}
	a := &Artifact{
		ID:          uuid.NewString(),
		Kind:        kind,
		Path:        rel,
		Description: description,
		RunID:       runID,
		Bytes:       info.Size(),
		AddedAt:     time.Now(),
	}
	p.Artifacts[a.ID] = a
	p.UpdatedAt = time.Now()
	return a, nil
}

// SortedArtifacts returns artifacts ordered by kind then path.
func (p *Project) SortedArtifacts() []*Artifact {
	out := make([]*Artifact, 0, len(p.Artifacts))
	for _, a := range p.Artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind == out[j].Kind {
			return out[i].Path < out[j].Path
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
