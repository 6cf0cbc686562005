// Package export renders ranked results as CSV, JSON or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// Format is an output encoding for results
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Missing is rendered wherever a figure has no data
const Missing = "N/A"

const sheetName = "Results"

// ParseFormat maps a query value to a Format; empty means CSV
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", errors.Validationf("Unsupported export format: %s", s)
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Filename returns the attachment name for a session's results
func (f Format) Filename(sessionID string) string {
	return fmt.Sprintf("audition-results-%s.%s", sessionID, f)
}

// Header returns the tabular column headings
func Header() []string {
	h := []string{"Dancer #", "Name"}
	for _, c := range models.Categories {
		h = append(h, c.Label())
	}
	return append(h, "Total Score", "Olympic Average")
}

// record is one result line before formatting. Material detail rows have
// no dancer number.
type record struct {
	number  int
	name    string
	figures []*float64
}

func newRecord(number int, name string, cats models.ScoreValues, total, olympic *float64) record {
	r := record{number: number, name: name}
	for _, c := range models.Categories {
		r.figures = append(r.figures, cats.Get(c))
	}
	r.figures = append(r.figures, total, olympic)
	return r
}

// records flattens a result set in ranking order. Aggregated results get an
// indented detail record per material when a dancer was scored in more than one.
func records(rs *services.ResultSet) []record {
	var out []record

	if rs.Mode == services.ModeMaterial {
		for _, r := range rs.Dancers {
			out = append(out, newRecord(r.Dancer.DancerNumber, r.Dancer.Name, r.CategoryAverages, r.TotalScore, r.OlympicAverage))
		}
		return out
	}

	for _, r := range rs.Aggregated {
		out = append(out, newRecord(r.Dancer.DancerNumber, r.Dancer.Name, r.CategoryTotals, r.TotalScore, r.OlympicAverage))
		if len(r.MaterialResults) > 1 {
			for _, mr := range r.MaterialResults {
				out = append(out, newRecord(0, "  "+mr.MaterialName, mr.CategoryAverages, mr.TotalScore, mr.OlympicAverage))
			}
		}
	}
	return out
}

// Rows renders the result set as table rows in ranking order
func Rows(rs *services.ResultSet) [][]string {
	recs := records(rs)
	rows := make([][]string, len(recs))
	for i, r := range recs {
		number := ""
		if r.number > 0 {
			number = fmt.Sprint(r.number)
		}
		row := []string{number, r.name}
		for _, v := range r.figures {
			row = append(row, figure(v))
		}
		rows[i] = row
	}
	return rows
}

func figure(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2f", *v)
}

// Write encodes rs to w in format f
func Write(w io.Writer, f Format, rs *services.ResultSet) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, rs)
	case FormatXLSX:
		return WriteXLSX(w, rs)
	default:
		return WriteCSV(w, rs)
	}
}

// WriteCSV writes the header and rows as CSV
func WriteCSV(w io.Writer, rs *services.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(rs)); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to write CSV")
	}
	return nil
}

// WriteJSON writes the ranked results without the session envelope
func WriteJSON(w io.Writer, rs *services.ResultSet) error {
	var v any = rs.Dancers
	if rs.Mode == services.ModeAggregated {
		v = rs.Aggregated
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteXLSX writes a single-sheet workbook with a bold, filtered header.
// Figures are numeric cells shown with two decimals; missing ones are the
// text placeholder.
func WriteXLSX(w io.Writer, rs *services.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to rename sheet")
	}

	header := Header()
	recs := records(rs)

	for col, h := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(sheetName, cell, h); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to write header")
		}
	}
	for i, r := range recs {
		if err := writeRecord(f, i+2, r); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to write cell")
		}
	}

	if err := styleSheet(f, len(header), len(recs)); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to style sheet")
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to write workbook")
	}
	return nil
}

func writeRecord(f *excelize.File, row int, r record) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if r.number > 0 {
		if err := f.SetCellValue(sheetName, cell, r.number); err != nil {
			return err
		}
	}
	cell, _ = excelize.CoordinatesToCellName(2, row)
	if err := f.SetCellStr(sheetName, cell, r.name); err != nil {
		return err
	}
	for i, v := range r.figures {
		cell, _ = excelize.CoordinatesToCellName(i+3, row)
		var err error
		if v == nil {
			err = f.SetCellStr(sheetName, cell, Missing)
		} else {
			err = f.SetCellFloat(sheetName, cell, *v, -1, 64)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// styleSheet bolds and filters the header, formats figures as 0.00 and
// widens the name column
func styleSheet(f *excelize.File, cols, rows int) error {
	last, _ := excelize.CoordinatesToCellName(cols, 1)
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}
	if err := f.AutoFilter(sheetName, "A1:"+last, nil); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 24); err != nil {
		return err
	}

	if rows == 0 {
		return nil
	}
	decimals, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	bottom, _ := excelize.CoordinatesToCellName(cols, rows+1)
	return f.SetCellStyle(sheetName, "C2", bottom, decimals)
}
