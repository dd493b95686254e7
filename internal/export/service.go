package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

// ErrNothingToExport is returned when no task is done.
var ErrNothingToExport = errors.New("no processed documents to export")

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Extraction"
)

// Artifact is an in-memory export file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// Exporter renders done tasks as tabular files. It only reads tasks and does
// no file I/O.
type Exporter struct {
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Exporter)

// WithClock fixes the timestamp used in file names.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Export dispatches on format ("csv" or "xlsx").
func (e *Exporter) Export(format string, tasks []entity.DocumentTask, sel entity.Selection) (Artifact, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return e.CSV(tasks, sel)
	case FormatXLSX:
		return e.XLSX(tasks, sel)
	default:
		return Artifact{}, fmt.Errorf("unsupported export format %q", format)
	}
}

// CSV writes a header of the field names in schema order followed by one row
// per done task. Every row value is double-quoted; lines end in "\n".
func (e *Exporter) CSV(tasks []entity.DocumentTask, sel entity.Selection) (Artifact, error) {
	rows := doneRecords(tasks)
	if len(rows) == 0 {
		return Artifact{}, ErrNothingToExport
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(constants.FieldsAsStringSlice(), ","))
	for _, rec := range rows {
		buf.WriteByte('\n')
		for i, v := range rec.Values() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quote(v))
		}
	}

	a := Artifact{
		Filename:    e.filename(sel, FormatCSV),
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	}
	e.logger.Info("export.csv.ok", "rows", a.Rows, "bytes", len(a.Data))
	return a, nil
}

// XLSX writes the same columns and rows as CSV into a single-sheet workbook.
func (e *Exporter) XLSX(tasks []entity.DocumentTask, sel entity.Selection) (Artifact, error) {
	start := time.Now()
	rows := doneRecords(tasks)
	if len(rows) == 0 {
		return Artifact{}, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return Artifact{}, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range constants.FieldsAsStringSlice() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellStr(sheetName, cell, h)
	}
	for r, rec := range rows {
		for c, v := range rec.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// Strings throughout: amounts and dates stay exactly as extracted.
			_ = f.SetCellStr(sheetName, cell, v)
		}
	}

	last, _ := excelize.ColumnNumberToName(constants.FieldCount)
	_ = f.SetColWidth(sheetName, "A", last, 18)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, fmt.Errorf("xlsx write: %w", err)
	}

	a := Artifact{
		Filename:    e.filename(sel, FormatXLSX),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	}
	e.logger.Info("export.xlsx.ok",
		"rows", a.Rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

// Filename is Extraction_<company>_<category>_<unix-millis>.<ext>.
func (e *Exporter) filename(sel entity.Selection, ext string) string {
	return fmt.Sprintf("Extraction_%s_%s_%d.%s",
		safeName(sel.Company), safeName(sel.Category), e.now().UnixMilli(), ext)
}

func doneRecords(tasks []entity.DocumentTask) []entity.Record {
	var out []entity.Record
	for _, t := range tasks {
		if t.Status == constants.TaskDone {
			out = append(out, t.Record)
		}
	}
	return out
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// safeName keeps selection names usable as a file name component.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
