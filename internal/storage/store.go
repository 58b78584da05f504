package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/fitting"
	"github.com/san-kum/linlab/internal/linearize"
	"github.com/san-kum/linlab/internal/transform"
)

const (
	metadataFile    = "metadata.json"
	dataFile        = "data.csv"
	transformedFile = "transformed.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// FitSummary is the archived form of one fitting.Result.
type FitSummary struct {
	Model    string    `json:"model" yaml:"model"`
	Params   []float64 `json:"params,omitempty" yaml:"params,omitempty"`
	RSquared float64   `json:"r_squared" yaml:"r_squared"`
	RMSE     float64   `json:"rmse" yaml:"rmse"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Run is the metadata of one archived analysis.
type Run struct {
	ID            string            `json:"id" yaml:"id"`
	Timestamp     time.Time         `json:"timestamp" yaml:"timestamp"`
	Equation      string            `json:"equation,omitempty" yaml:"equation,omitempty"`
	Source        string            `json:"source" yaml:"source"`
	Columns       dataset.Columns   `json:"columns" yaml:"columns"`
	Transformed   *dataset.Columns  `json:"transformed,omitempty" yaml:"transformed,omitempty"`
	XTransform    transform.Label   `json:"x_transform" yaml:"x_transform"`
	YTransform    transform.Label   `json:"y_transform" yaml:"y_transform"`
	Linearization *linearize.Result `json:"linearization,omitempty" yaml:"linearization,omitempty"`
	Fits          []FitSummary      `json:"fits,omitempty" yaml:"fits,omitempty"`
	Best          string            `json:"best,omitempty" yaml:"best,omitempty"`
}

// Summarize converts fit results, in ranked order, for archiving.
func Summarize(results map[string]*fitting.Result, d dataset.Dataset) []FitSummary {
	var out []FitSummary
	for _, r := range fitting.Ranked(results) {
		fs := FitSummary{Model: r.Model}
		if r.OK() {
			fs.Params = r.Params
			fs.RSquared = r.RSquared
			if m, ok := fitting.ModelByName(r.Model); ok {
				fs.RMSE = fitting.RMSE(m, r.Params, d)
			}
		} else {
			fs.Error = r.Err.Error()
		}
		out = append(out, fs)
	}
	return out
}

var unsafeID = regexp.MustCompile(`[^a-z0-9]+`)

// createFile opens archive files for writing.
var createFile = os.Create

// Save archives run with its raw data and, when the axes were transformed,
// the transformed data. It fills in run.ID and run.Timestamp. A failed save
// leaves no run directory behind.
func (s *Store) Save(run *Run, data dataset.Dataset, transformed *dataset.Dataset) (_ string, err error) {
	now := time.Now()
	slug := strings.Trim(unsafeID.ReplaceAllString(strings.ToLower(run.Equation), "_"), "_")
	if slug == "" {
		slug = "run"
	}
	runID := fmt.Sprintf("%s_%d", slug, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	run.ID = runID
	run.Timestamp = now
	run.Columns = columns(data)
	run.Transformed = nil
	if transformed != nil {
		cols := columns(*transformed)
		run.Transformed = &cols
	}

	if err = writeJSON(filepath.Join(runDir, metadataFile), run); err != nil {
		return "", errors.Wrapf(err, "run %s metadata", runID)
	}
	if err = writeData(filepath.Join(runDir, dataFile), data); err != nil {
		return "", errors.Wrapf(err, "run %s data", runID)
	}
	if transformed != nil {
		if err = writeData(filepath.Join(runDir, transformedFile), *transformed); err != nil {
			return "", errors.Wrapf(err, "run %s transformed data", runID)
		}
	}
	return runID, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeData(path string, d dataset.Dataset) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dataset.WriteCSV(f, d)
}

// columns matches the header dataset.WriteCSV produces for d.
func columns(d dataset.Dataset) dataset.Columns {
	c := dataset.Columns{X: title(d.X, "x"), Y: title(d.Y, "y")}
	if d.X.HasUncertainty() {
		c.XErr = c.X + "_err"
	}
	if d.Y.HasUncertainty() {
		c.YErr = c.Y + "_err"
	}
	return c
}

func title(s dataset.Series, fallback string) string {
	if s.Title == "" {
		return fallback
	}
	return s.Title
}

// List returns archived runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]Run, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Run{}, nil
		}
		return nil, err
	}

	runs := make([]Run, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &run, nil
}

// LoadData reads the raw dataset of a run.
func (s *Store) LoadData(runID string) (dataset.Dataset, error) {
	run, err := s.Load(runID)
	if err != nil {
		return dataset.Dataset{}, err
	}
	return dataset.LoadCSV(filepath.Join(s.baseDir, runID, dataFile), run.Columns)
}

// LoadTransformed reads the transformed dataset of a run. ok is false when
// the run was archived without one.
func (s *Store) LoadTransformed(runID string) (d dataset.Dataset, ok bool, err error) {
	run, err := s.Load(runID)
	if err != nil {
		return dataset.Dataset{}, false, err
	}
	if run.Transformed == nil {
		return dataset.Dataset{}, false, nil
	}
	d, err = dataset.LoadCSV(filepath.Join(s.baseDir, runID, transformedFile), *run.Transformed)
	return d, err == nil, err
}

// Delete removes a run directory.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return errors.Wrapf(err, "run %s", runID)
	}
	return os.RemoveAll(dir)
}
