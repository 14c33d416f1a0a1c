// Package export renders stored leads as spreadsheet rows.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Simplici0/quickestimate/internal/lead"
)

// photoSeparator joins photo references within one cell.
const photoSeparator = " | "

// Row is one exported lead. Estimate figures missing from a stored
// snapshot export as empty cells.
type Row struct {
	ID            int64    `csv:"id"`
	CreatedAt     string   `csv:"created_at"`
	Name          string   `csv:"name"`
	Phone         string   `csv:"phone"`
	Email         string   `csv:"email"`
	Zip           string   `csv:"zip"`
	ProjectType   string   `csv:"project_type"`
	EstimateLow   *float64 `csv:"estimate_low"`
	EstimateHigh  *float64 `csv:"estimate_high"`
	MaterialsLow  *float64 `csv:"materials_low"`
	MaterialsHigh *float64 `csv:"materials_high"`
	LaborLow      *float64 `csv:"labor_low"`
	LaborHigh     *float64 `csv:"labor_high"`
	Notes         string   `csv:"notes"`
	Photos        string   `csv:"photos"`
}

type rangeFields struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

type estimateFields struct {
	LowEstimate  *float64 `json:"lowEstimate"`
	HighEstimate *float64 `json:"highEstimate"`
	LineItems    *struct {
		Materials *rangeFields `json:"materials"`
		Labor     *rangeFields `json:"labor"`
	} `json:"lineItems"`
}

type inputFields struct {
	Notes string `json:"notes"`
}

// RowFromRecord flattens a stored lead. Malformed snapshots yield empty
// cells rather than an error.
func RowFromRecord(rec lead.Record) Row {
	row := Row{
		ID:          rec.ID,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		Name:        rec.Name,
		Phone:       rec.Phone,
		Email:       rec.Email,
		Zip:         rec.Zip,
		ProjectType: rec.ProjectType,
		Photos:      lead.PhotoSummary(rec.PhotoRefs(), photoSeparator),
	}

	var in inputFields
	if json.Unmarshal(rec.Inputs, &in) == nil {
		row.Notes = in.Notes
	}

	var est estimateFields
	if json.Unmarshal(rec.Estimate, &est) == nil {
		row.EstimateLow = est.LowEstimate
		row.EstimateHigh = est.HighEstimate
		if est.LineItems != nil {
			if m := est.LineItems.Materials; m != nil {
				row.MaterialsLow, row.MaterialsHigh = m.Low, m.High
			}
			if l := est.LineItems.Labor; l != nil {
				row.LaborLow, row.LaborHigh = l.Low, l.High
			}
		}
	}
	return row
}

// Rows flattens records in order.
func Rows(records []lead.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, RowFromRecord(rec))
	}
	return rows
}

// Filename returns "<prefix>-YYYY-MM-DD.<ext>" for the export date.
func Filename(prefix string, now time.Time, ext string) string {
	if prefix == "" {
		prefix = "leads"
	}
	return fmt.Sprintf("%s-%s.%s", prefix, now.UTC().Format("2006-01-02"), ext)
}
