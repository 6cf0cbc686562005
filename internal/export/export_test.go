package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/scoring"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

func materialSet() *services.ResultSet {
	return &services.ResultSet{
		Mode: services.ModeMaterial,
		Dancers: []scoring.DancerResult{
			{
				Dancer:           models.Dancer{DancerNumber: 102, Name: "Ada, Jr."},
				CategoryAverages: models.ScoreValues{Technique: models.Float(4.5), Musicality: models.Float(4), Expression: models.Float(3.5), Timing: models.Float(4), Presentation: models.Float(4)},
				TotalScore:       models.Float(20),
				OlympicAverage:   models.Float(20),
				JudgeCount:       3,
			},
			{
				Dancer: models.Dancer{DancerNumber: 103, Name: "Bea"},
			},
		},
	}
}

func aggregatedSet() *services.ResultSet {
	return &services.ResultSet{
		Mode: services.ModeAggregated,
		Aggregated: []scoring.AggregatedDancerResult{
			{
				Dancer:         models.Dancer{DancerNumber: 7, Name: "Cleo"},
				CategoryTotals: models.ScoreValues{Technique: models.Float(9)},
				TotalScore:     models.Float(30),
				OlympicAverage: models.Float(30),
				MaterialResults: []scoring.MaterialResult{
					{MaterialName: "Ballet", CategoryAverages: models.ScoreValues{Technique: models.Float(4)}, TotalScore: models.Float(15)},
					{MaterialName: "Jazz", CategoryAverages: models.ScoreValues{Technique: models.Float(5)}, TotalScore: models.Float(15)},
				},
			},
			{
				Dancer:         models.Dancer{DancerNumber: 8, Name: "Dee"},
				TotalScore:     models.Float(12),
				OlympicAverage: models.Float(12),
				MaterialResults: []scoring.MaterialResult{
					{MaterialName: "Ballet", TotalScore: models.Float(12)},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"JSON", FormatJSON, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, errors.ErrValidation) {
				t.Errorf("ParseFormat(%q) error = %v, want validation", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatMetadata(t *testing.T) {
	if FormatCSV.ContentType() != "text/csv" {
		t.Errorf("csv content type = %s", FormatCSV.ContentType())
	}
	if !strings.Contains(FormatXLSX.ContentType(), "spreadsheetml") {
		t.Errorf("xlsx content type = %s", FormatXLSX.ContentType())
	}
	if got := FormatJSON.Filename("abc"); got != "audition-results-abc.json" {
		t.Errorf("filename = %s", got)
	}
}

func TestHeader(t *testing.T) {
	want := "Dancer #,Name,Technique,Musicality,Expression,Timing,Presentation,Total Score,Olympic Average"
	if got := strings.Join(Header(), ","); got != want {
		t.Errorf("header = %s", got)
	}
}

func TestRows_Material(t *testing.T) {
	rows := Rows(materialSet())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	want := []string{"102", "Ada, Jr.", "4.50", "4.00", "3.50", "4.00", "4.00", "20.00", "20.00"}
	if strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Errorf("row 0 = %v", rows[0])
	}
	for i, cell := range rows[1][2:] {
		if cell != Missing {
			t.Errorf("missing figure %d rendered as %q", i, cell)
		}
	}
}

func TestRows_AggregatedDetailRows(t *testing.T) {
	rows := Rows(aggregatedSet())

	// Cleo has two materials so gets two detail rows; Dee has one and gets none
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %v", len(rows), rows)
	}
	if rows[0][0] != "7" || rows[0][2] != "9.00" || rows[0][3] != Missing {
		t.Errorf("aggregate row = %v", rows[0])
	}
	if rows[1][0] != "" || rows[1][1] != "  Ballet" || rows[1][2] != "4.00" {
		t.Errorf("detail row = %v", rows[1])
	}
	if rows[2][1] != "  Jazz" || rows[2][7] != "15.00" {
		t.Errorf("detail row = %v", rows[2])
	}
	if rows[3][0] != "8" {
		t.Errorf("expected Dee last, got %v", rows[3])
	}
}

func TestWriteCSV_QuotesCommas(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, materialSet()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[1][1] != "Ada, Jr." {
		t.Errorf("name = %q", records[1][1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, aggregatedSet()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var out []scoring.AggregatedDancerResult
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out) != 2 || out[0].Dancer.Name != "Cleo" || len(out[0].MaterialResults) != 2 {
		t.Errorf("decoded %+v", out)
	}
	if out[1].CategoryTotals.Technique != nil {
		t.Error("missing values must stay null in JSON")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, aggregatedSet()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5 (header + 4)", len(rows))
	}
	if rows[0][0] != "Dancer #" || rows[0][8] != "Olympic Average" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][1] != "  Ballet" {
		t.Errorf("detail row = %v", rows[2])
	}

	raw := excelize.Options{RawCellValue: true}
	for cell, want := range map[string]string{"A2": "7", "I2": "30", "C3": "4"} {
		got, err := f.GetCellValue(sheetName, cell, raw)
		if err != nil || got != want {
			t.Errorf("raw %s = %q (%v), want %q", cell, got, err, want)
		}
		typ, err := f.GetCellType(sheetName, cell)
		if err != nil {
			t.Fatalf("GetCellType(%s) failed: %v", cell, err)
		}
		if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
			t.Errorf("%s should be numeric, got string cell", cell)
		}
	}
	if got, _ := f.GetCellValue(sheetName, "I2"); got != "30.00" {
		t.Errorf("I2 displays %q, want 30.00", got)
	}
	if got, _ := f.GetCellValue(sheetName, "D2"); got != Missing {
		t.Errorf("missing figure = %q, want %s", got, Missing)
	}
	if got, _ := f.GetCellValue(sheetName, "A3"); got != "" {
		t.Errorf("detail row number = %q, want empty", got)
	}
}
