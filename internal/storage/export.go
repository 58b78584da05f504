package storage

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/linlab/internal/dataset"
)

// ExportData is a self-contained report of a run: metadata plus the raw and
// transformed points.
type ExportData struct {
	Run         Run              `json:"run" yaml:"run"`
	Points      int              `json:"points" yaml:"points"`
	Data        dataset.Dataset  `json:"data" yaml:"data"`
	Transformed *dataset.Dataset `json:"transformed,omitempty" yaml:"transformed,omitempty"`
}

// Export gathers everything archived for runID.
func (s *Store) Export(runID string) (*ExportData, error) {
	run, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data, err := s.LoadData(runID)
	if err != nil {
		return nil, err
	}
	out := &ExportData{Run: *run, Points: data.Len(), Data: data}

	transformed, ok, err := s.LoadTransformed(runID)
	if err != nil {
		return nil, err
	}
	if ok {
		out.Transformed = &transformed
	}
	return out, nil
}

// Write encodes the export as json, yaml or csv. The csv form carries the
// transformed points when there are any, otherwise the raw ones.
func (e *ExportData) Write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(e); err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		if e.Transformed != nil {
			return dataset.WriteCSV(w, *e.Transformed)
		}
		return dataset.WriteCSV(w, e.Data)
	}
	return errors.Errorf("unknown export format %q", format)
}
