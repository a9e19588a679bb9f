package evaluation

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"slicetriage/internal/models"
)

func reportFixture() models.EvaluationResult {
	return models.EvaluationResult{
		RunID:      "run-1",
		Budgets:    []float64{0.2, 0.5},
		Strategies: []string{"IWUO", "Oracle"},
		Cells: []models.EvaluationCell{
			{PatientID: "p1", Strategy: "IWUO", BudgetFraction: 0.2, Budget: 2, Dice: 0.8},
			{PatientID: "p1", Strategy: "Oracle", BudgetFraction: 0.2, Budget: 2, Dice: 0.95, UpperBound: true},
		},
		Aggregates: []models.AggregateCell{
			{Strategy: "IWUO", BudgetFraction: 0.2, Mean: 0.8, Count: 1},
			{Strategy: "Oracle", BudgetFraction: 0.2, Mean: 0.95, Count: 1, UpperBound: true},
		},
		Skipped: []models.SkippedPatient{
			{PatientID: "p9", Reason: "artifact unreadable"},
		},
	}
}

func TestDisplayNameForcesUpperBoundLabel(t *testing.T) {
	assert.Equal(t, "IWUO", displayName("IWUO", false))
	assert.Equal(t, "Oracle (upper bound)", displayName("Oracle", true))
	assert.Equal(t, "Oracle (upper bound)", displayName("Oracle (upper bound)", true))
}

func TestWriteCSVLabelsOracleRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	require.NoError(t, WriteCSV(path, reportFixture()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "patient_id,strategy,budget_fraction,budget,dice")
	assert.Contains(t, content, "p1,IWUO,0.2,2,0.800000")
	assert.Contains(t, content, "Oracle (upper bound)")
	assert.NotContains(t, content, "Oracle,0.2")
}

func TestWriteXLSXProducesBothSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, WriteXLSX(path, reportFixture()))

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Results", "Summary"}, wb.GetSheetList())

	name, err := wb.GetCellValue("Summary", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Oracle (upper bound)", name)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, reportFixture())
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Oracle (upper bound)")
	assert.Contains(t, out, "skipped p9: artifact unreadable")

	// The 0.5 budget has no aggregates, so its column reads N/A.
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "0.8000")
}

func TestPrintSummaryLabelsMixedAggregates(t *testing.T) {
	// One marked and one unmarked aggregate for the same strategy: the row
	// label must still carry the upper-bound suffix, regardless of map
	// iteration order.
	result := models.EvaluationResult{
		RunID:      "run-2",
		Budgets:    []float64{0.2, 0.5},
		Strategies: []string{"Oracle"},
		Aggregates: []models.AggregateCell{
			{Strategy: "Oracle", BudgetFraction: 0.2, Mean: 0.9, Count: 1},
			{Strategy: "Oracle", BudgetFraction: 0.5, Mean: 0.95, Count: 1, UpperBound: true},
		},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, result)
	assert.Contains(t, buf.String(), "Oracle (upper bound)")
}
