package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

var fixed = time.UnixMilli(1714557600123)

func task(status constants.TaskStatus, kv map[constants.FieldName]string) entity.DocumentTask {
	rec := entity.NewRecord()
	for k, v := range kv {
		rec.Set(k, v)
	}
	return entity.DocumentTask{Status: status, Record: rec}
}

func sampleTasks() []entity.DocumentTask {
	return []entity.DocumentTask{
		task(constants.TaskDone, map[constants.FieldName]string{
			constants.FieldProposerName: `Asha "AV" Verma`,
			constants.FieldPolicyNo:     "P-1",
		}),
		task(constants.TaskError, map[constants.FieldName]string{constants.FieldPolicyNo: "SKIP-ERR"}),
		task(constants.TaskPending, nil),
		task(constants.TaskDone, map[constants.FieldName]string{
			constants.FieldPolicyNo:     "P-2",
			constants.FieldFinalPremium: "1,180",
		}),
	}
}

var sel = entity.Selection{Company: "Acme General", Category: "Motor"}

func TestCSV_Format(t *testing.T) {
	e := NewExporter(WithClock(func() time.Time { return fixed }))
	a, err := e.CSV(sampleTasks(), sel)
	require.NoError(t, err)

	assert.Equal(t, "Extraction_Acme General_Motor_1714557600123.csv", a.Filename)
	assert.Equal(t, ContentTypeCSV, a.ContentType)
	assert.Equal(t, 2, a.Rows)

	lines := strings.Split(string(a.Data), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(constants.FieldsAsStringSlice(), ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[0], "Proposal Received Date,Proposal No,Proposer Name,"))
	assert.True(t, strings.HasSuffix(lines[0], ",Vehicle Reg. No,Vehicle Make"))

	assert.True(t, strings.HasPrefix(lines[1], `"","","Asha ""AV"" Verma","",`))
	assert.Contains(t, lines[2], `"1,180"`)
	assert.NotContains(t, string(a.Data), "SKIP-ERR")
	assert.False(t, strings.HasSuffix(string(a.Data), "\n"))
	assert.NotContains(t, string(a.Data), "\r")
}

func TestCSV_EveryValueQuoted(t *testing.T) {
	a, err := NewExporter().CSV(sampleTasks(), sel)
	require.NoError(t, err)
	row := strings.Split(string(a.Data), "\n")[2]
	assert.True(t, strings.HasPrefix(row, `"`))
	assert.True(t, strings.HasSuffix(row, `"`))
	assert.Equal(t, constants.FieldCount-1, strings.Count(row, `","`))
	assert.Equal(t, constants.FieldCount*2, strings.Count(row, `"`))
}

func TestCSV_Idempotent(t *testing.T) {
	e := NewExporter(WithClock(func() time.Time { return fixed }))
	tasks := sampleTasks()
	a1, err := e.CSV(tasks, sel)
	require.NoError(t, err)
	a2, err := e.CSV(tasks, sel)
	require.NoError(t, err)
	assert.Equal(t, a1.Filename, a2.Filename)
	assert.True(t, bytes.Equal(a1.Data, a2.Data))
}

func TestExport_NothingDone(t *testing.T) {
	e := NewExporter()
	tasks := []entity.DocumentTask{task(constants.TaskError, nil), task(constants.TaskProcessing, nil)}
	_, err := e.CSV(tasks, sel)
	assert.ErrorIs(t, err, ErrNothingToExport)
	_, err = e.XLSX(nil, sel)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestXLSX_MatchesCSVRows(t *testing.T) {
	e := NewExporter(WithClock(func() time.Time { return fixed }))
	a, err := e.XLSX(sampleTasks(), sel)
	require.NoError(t, err)
	assert.Equal(t, "Extraction_Acme General_Motor_1714557600123.xlsx", a.Filename)
	assert.Equal(t, ContentTypeXLSX, a.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(a.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, constants.FieldsAsStringSlice(), rows[0])
	assert.Equal(t, `Asha "AV" Verma`, rows[1][2])
	assert.Equal(t, "P-2", rows[2][20])
	assert.Equal(t, "1,180", rows[2][16])
}

func TestExport_Dispatch(t *testing.T) {
	e := NewExporter()
	a, err := e.Export("XLSX", sampleTasks(), sel)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(a.Filename, ".xlsx"))

	_, err = e.Export("pdf", sampleTasks(), sel)
	assert.Error(t, err)
}

func TestFilename_SanitizesSeparators(t *testing.T) {
	e := NewExporter(WithClock(func() time.Time { return fixed }))
	a, err := e.CSV(sampleTasks(), entity.Selection{Company: "A/B Insurance", Category: "Two Wheeler"})
	require.NoError(t, err)
	assert.Equal(t, "Extraction_A-B Insurance_Two Wheeler_1714557600123.csv", a.Filename)
}
