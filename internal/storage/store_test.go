package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/fitting"
	"github.com/san-kum/linlab/internal/linearize"
	"github.com/san-kum/linlab/internal/transform"
)

func sampleData(t *testing.T) dataset.Dataset {
	t.Helper()
	x, err := dataset.NewSeries("t", []float64{0, 1, 2, 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	y, err := dataset.NewSeries("A", []float64{100, 74, 55, 41}, []float64{1, 1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	d, err := dataset.New(x, y)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	d := sampleData(t)
	transformed, err := transform.Apply(d, transform.LabelIdentity, transform.LabelNaturalLog)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	run := &Run{
		Equation:   "Radioactive decay",
		Source:     "manual",
		XTransform: transform.LabelIdentity,
		YTransform: transform.LabelNaturalLog,
		Linearization: &linearize.Result{
			X: "t", Y: "A",
			YTransform:    transform.LabelNaturalLog,
			GradientExpr:  "-λ",
			InterceptExpr: "ln(A0)",
		},
		Best: "Linear",
	}

	runID, err := st.Save(run, d, &transformed)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "radioactive_decay_") {
		t.Errorf("unexpected run id %s", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.YTransform != transform.LabelNaturalLog {
		t.Errorf("expected natural-log, got %s", meta.YTransform)
	}
	if meta.Linearization == nil || meta.Linearization.GradientExpr != "-λ" {
		t.Errorf("linearization not restored: %+v", meta.Linearization)
	}
	if meta.Best != "Linear" {
		t.Errorf("expected best Linear, got %s", meta.Best)
	}

	data, err := st.LoadData(runID)
	if err != nil {
		t.Fatalf("load data failed: %v", err)
	}
	if data.Len() != 4 {
		t.Errorf("expected 4 points, got %d", data.Len())
	}
	if data.X.HasUncertainty() {
		t.Error("x uncertainty should stay unknown")
	}
	if data.Y.Uncertainties[2] != 1 {
		t.Errorf("expected y uncertainty 1, got %g", data.Y.Uncertainties[2])
	}

	logged, ok, err := st.LoadTransformed(runID)
	if err != nil || !ok {
		t.Fatalf("load transformed failed: ok=%v err=%v", ok, err)
	}
	if logged.Y.Title != "ln(A)" {
		t.Errorf("expected title ln(A), got %s", logged.Y.Title)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, name := range []string{"first", "second"} {
		if _, err := st.Save(&Run{Equation: name}, sampleData(t), nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Equation != "second" {
		t.Errorf("expected newest first, got %s", runs[0].Equation)
	}
}

func TestStoreSaveFailureLeavesNoRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	defer func(orig func(string) (*os.File, error)) { createFile = orig }(createFile)
	for _, name := range []string{dataFile, transformedFile} {
		failing := name
		createFile = func(path string) (*os.File, error) {
			if filepath.Base(path) == failing {
				return nil, os.ErrPermission
			}
			return os.Create(path)
		}

		d := sampleData(t)
		_, err := st.Save(&Run{Equation: "decay"}, d, &d)
		if err == nil {
			t.Fatalf("%s: expected save to fail", failing)
		}
		if !strings.Contains(err.Error(), "permission denied") {
			t.Errorf("%s: unexpected error %v", failing, err)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("%s: expected no run directories, got %d", failing, len(entries))
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(&Run{}, sampleData(t), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "data.csv")); os.IsNotExist(err) {
		t.Error("data.csv not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "transformed.csv")); !os.IsNotExist(err) {
		t.Error("transformed.csv should not exist")
	}
	if _, ok, err := st.LoadTransformed(runID); ok || err != nil {
		t.Errorf("expected no transformed data, got ok=%v err=%v", ok, err)
	}

	if err := st.Delete(runID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := st.Load(runID); err == nil {
		t.Error("expected error loading deleted run")
	}
}

func TestSummarize(t *testing.T) {
	d := sampleData(t)
	linear, _ := fitting.ModelByName("Linear")
	results, err := fitting.NewFitter(fitting.Options{}, linear).FitAll(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	summary := Summarize(results, d)
	if len(summary) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summary))
	}
	if summary[0].Error != "" || summary[0].RMSE <= 0 {
		t.Errorf("unexpected summary %+v", summary[0])
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(&Run{Equation: "export me"}, sampleData(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	exp, err := st.Export(runID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exp.Points != 4 {
		t.Errorf("expected 4 points, got %d", exp.Points)
	}

	var buf bytes.Buffer
	if err := exp.Write(&buf, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded["run"]; !ok {
		t.Error("expected run key")
	}

	buf.Reset()
	if err := exp.Write(&buf, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "equation: export me") {
		t.Errorf("yaml missing equation:\n%s", buf.String())
	}

	buf.Reset()
	if err := exp.Write(&buf, "csv"); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "t,A,A_err\n") {
		t.Errorf("unexpected csv header:\n%s", buf.String())
	}

	if err := exp.Write(&buf, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
