package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/store"
)

// utf8BOM makes spreadsheet tools detect UTF-8.
const utf8BOM = "\uFEFF"

// CSVOptions controls the tabular export.
type CSVOptions struct {
	// BOM prefixes the output with a UTF-8 byte order mark.
	BOM bool
	// Summary appends total and per-group area rows after the table.
	Summary bool
}

var csvHeader = []string{"#", "Name", "Type", "Measurement", "Notes", "Color", "ID"}

// WriteCSV writes the measurement table of p.
func WriteCSV(p Payload, w io.Writer, opts CSVOptions) error {
	if opts.BOM {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, r := range p.MeasurementTable {
		if err := cw.Write(csvRow(i+1, r)); err != nil {
			return err
		}
	}
	if opts.Summary {
		writeSummary(cw, p.Summary)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvRow(n int, r store.Row) []string {
	return []string{strconv.Itoa(n), r.Name, r.Type.Label(), r.Measurement, r.Notes, r.Color, r.ID}
}

func writeSummary(cw *csv.Writer, s store.Summary) {
	_ = cw.Write(nil)
	_ = cw.Write([]string{"", "Total area", shape.KindPolygon.Label(), s.AreaText, strconv.Itoa(s.Polygons) + " shapes"})
	_ = cw.Write([]string{"", "Total length", shape.KindPolyline.Label(), s.LengthText, strconv.Itoa(s.Polylines) + " shapes"})
	for _, g := range s.Groups {
		_ = cw.Write([]string{"", g.Label, shape.KindPolygon.Label(), g.Text, strconv.Itoa(g.Count) + " shapes"})
	}
}

// ExportCSV writes the measurement table of p to a file.
func ExportCSV(p Payload, path string, opts CSVOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(p, f, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
