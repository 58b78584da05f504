package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/linlab/internal/errs"
)

// Columns selects CSV columns by header name. XErr and YErr are optional.
type Columns struct {
	X, Y       string
	XErr, YErr string
}

// LoadCSV reads a dataset from a CSV file with a header row.
func LoadCSV(path string, cols Columns) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()
	return ReadCSV(f, cols)
}

// ReadCSV reads the selected columns. Blank rows are skipped; a blank cell in
// a selected column is an error.
func ReadCSV(r io.Reader, cols Columns) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Dataset{}, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return Dataset{}, &errs.ValidationError{Field: "csv", Msg: "no header row"}
	}

	index := map[string]int{}
	for i, h := range records[0] {
		index[strings.TrimSpace(h)] = i
	}
	column := func(name string, required bool) (int, error) {
		if name == "" && !required {
			return -1, nil
		}
		i, ok := index[name]
		if !ok {
			return -1, &errs.ValidationError{Field: "csv", Msg: "no column " + strconv.Quote(name)}
		}
		return i, nil
	}

	xi, err := column(cols.X, true)
	if err != nil {
		return Dataset{}, err
	}
	yi, err := column(cols.Y, true)
	if err != nil {
		return Dataset{}, err
	}
	xe, err := column(cols.XErr, false)
	if err != nil {
		return Dataset{}, err
	}
	ye, err := column(cols.YErr, false)
	if err != nil {
		return Dataset{}, err
	}

	x := Series{Title: cols.X}
	y := Series{Title: cols.Y}
	if xe >= 0 {
		x.Uncertainties = []float64{}
	}
	if ye >= 0 {
		y.Uncertainties = []float64{}
	}

	for n, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		line := n + 2
		get := func(i int) (float64, error) {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				return 0, &errs.ValidationError{Field: "csv", Msg: "missing value on line " + strconv.Itoa(line)}
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return 0, &errs.ValidationError{Field: "csv", Msg: "bad number on line " + strconv.Itoa(line) + ": " + rec[i]}
			}
			return v, nil
		}

		xv, err := get(xi)
		if err != nil {
			return Dataset{}, err
		}
		yv, err := get(yi)
		if err != nil {
			return Dataset{}, err
		}
		x.Values = append(x.Values, xv)
		y.Values = append(y.Values, yv)
		if xe >= 0 {
			v, err := get(xe)
			if err != nil {
				return Dataset{}, err
			}
			x.Uncertainties = append(x.Uncertainties, v)
		}
		if ye >= 0 {
			v, err := get(ye)
			if err != nil {
				return Dataset{}, err
			}
			y.Uncertainties = append(y.Uncertainties, v)
		}
	}

	return New(x, y)
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes the dataset with a header row; uncertainty columns are
// emitted only for series that carry them.
func WriteCSV(w io.Writer, d Dataset) error {
	cw := csv.NewWriter(w)

	header := []string{title(d.X, "x")}
	if d.X.HasUncertainty() {
		header = append(header, title(d.X, "x")+"_err")
	}
	header = append(header, title(d.Y, "y"))
	if d.Y.HasUncertainty() {
		header = append(header, title(d.Y, "y")+"_err")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < d.Len(); i++ {
		row := []string{format(d.X.Values[i])}
		if d.X.HasUncertainty() {
			row = append(row, format(d.X.Uncertainties[i]))
		}
		row = append(row, format(d.Y.Values[i]))
		if d.Y.HasUncertainty() {
			row = append(row, format(d.Y.Uncertainties[i]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DefaultColumns matches the header WriteCSV produces for d's titles.
func DefaultColumns(xTitle, yTitle string, withErrors bool) Columns {
	c := Columns{X: xTitle, Y: yTitle}
	if withErrors {
		c.XErr, c.YErr = xTitle+"_err", yTitle+"_err"
	}
	return c
}

func title(s Series, fallback string) string {
	if s.Title == "" {
		return fallback
	}
	return s.Title
}

func format(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
