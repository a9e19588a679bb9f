package evaluation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"slicetriage/internal/models"
)

// upperBoundSuffix is appended to every surfaced oracle row. Reports build
// display names through displayName, which makes an unlabeled oracle row
// structurally impossible rather than a convention.
const upperBoundSuffix = " (upper bound)"

// displayName returns the strategy name to surface in a report, forcing the
// upper-bound label onto oracle-derived rows.
func displayName(strategy string, upperBound bool) string {
	if upperBound && !strings.HasSuffix(strategy, upperBoundSuffix) {
		return strategy + upperBoundSuffix
	}
	return strategy
}

// WriteCSV writes the per-cell table followed by the aggregate summary.
func WriteCSV(path string, result models.EvaluationResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"patient_id", "strategy", "budget_fraction", "budget", "dice"}); err != nil {
		return err
	}
	for _, c := range result.Cells {
		rec := []string{
			c.PatientID,
			displayName(c.Strategy, c.UpperBound),
			strconv.FormatFloat(c.BudgetFraction, 'g', -1, 64),
			strconv.Itoa(c.Budget),
			strconv.FormatFloat(c.Dice, 'f', 6, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	if err := w.Write([]string{}); err != nil {
		return err
	}
	if err := w.Write([]string{"strategy", "budget_fraction", "mean", "std", "median", "min", "max", "count"}); err != nil {
		return err
	}
	for _, a := range result.Aggregates {
		rec := []string{
			displayName(a.Strategy, a.UpperBound),
			strconv.FormatFloat(a.BudgetFraction, 'g', -1, 64),
			strconv.FormatFloat(a.Mean, 'f', 6, 64),
			strconv.FormatFloat(a.Std, 'f', 6, 64),
			strconv.FormatFloat(a.Median, 'f', 6, 64),
			strconv.FormatFloat(a.Min, 'f', 6, 64),
			strconv.FormatFloat(a.Max, 'f', 6, 64),
			strconv.Itoa(a.Count),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes a two-sheet workbook: the per-cell results and the
// aggregate summary.
func WriteXLSX(path string, result models.EvaluationResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	const resultsSheet = "Results"
	const summarySheet = "Summary"
	if err := wb.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	if _, err := wb.NewSheet(summarySheet); err != nil {
		return err
	}

	header := []interface{}{"patient_id", "strategy", "budget_fraction", "budget", "dice"}
	if err := wb.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return err
	}
	for i, c := range result.Cells {
		row := []interface{}{
			c.PatientID,
			displayName(c.Strategy, c.UpperBound),
			c.BudgetFraction,
			c.Budget,
			c.Dice,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return err
		}
	}

	summaryHeader := []interface{}{"strategy", "budget_fraction", "mean", "std", "median", "min", "max", "count"}
	if err := wb.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	for i, a := range result.Aggregates {
		row := []interface{}{
			displayName(a.Strategy, a.UpperBound),
			a.BudgetFraction,
			a.Mean,
			a.Std,
			a.Median,
			a.Min,
			a.Max,
			a.Count,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	return wb.SaveAs(path)
}

// PrintSummary writes the strategy x budget mean-Dice table, mirroring the
// evaluation footer of the pipeline: one row per strategy, one column per
// budget fraction.
func PrintSummary(w io.Writer, result models.EvaluationResult) {
	fmt.Fprintf(w, "\nRun %s\n", result.RunID)
	fmt.Fprintf(w, "Patients evaluated: %d cells, %d skipped\n", len(result.Cells), len(result.Skipped))
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.PatientID, s.Reason)
	}

	fmt.Fprintf(w, "\n%-28s", "Strategy")
	for _, b := range result.Budgets {
		fmt.Fprintf(w, "%-10s", fmt.Sprintf("%.0f%%", b*100))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 28+10*len(result.Budgets)))

	byKey := make(map[string]map[float64]models.AggregateCell)
	for _, a := range result.Aggregates {
		if byKey[a.Strategy] == nil {
			byKey[a.Strategy] = make(map[float64]models.AggregateCell)
		}
		byKey[a.Strategy][a.BudgetFraction] = a
	}
	for _, strategy := range result.Strategies {
		cells := byKey[strategy]
		upper := false
		for _, a := range cells {
			if a.UpperBound {
				upper = true
				break
			}
		}
		fmt.Fprintf(w, "%-28s", displayName(strategy, upper))
		for _, b := range result.Budgets {
			if a, ok := cells[b]; ok && a.Count > 0 {
				fmt.Fprintf(w, "%-10s", fmt.Sprintf("%.4f", a.Mean))
			} else {
				fmt.Fprintf(w, "%-10s", "N/A")
			}
		}
		fmt.Fprintln(w)
	}
}
