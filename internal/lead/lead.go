// Package lead holds the captured customer inquiry and its stored forms.
package lead

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/quickestimate/internal/pricing"
)

// Submission is a lead as accepted from the public form. The estimate is
// the snapshot shown to the customer and is stored as-is.
type Submission struct {
	Name     string         `json:"name"`
	Phone    string         `json:"phone"`
	Email    string         `json:"email"`
	Zip      string         `json:"zip"`
	Photos   []string       `json:"photos"`
	Inputs   pricing.Inputs `json:"inputs"`
	Estimate pricing.Result `json:"estimate"`
}

// Summary is the list view of a stored lead.
type Summary struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Zip         string    `json:"zip"`
	ProjectType string    `json:"projectType"`
}

// Record is a stored lead with its JSON snapshots exactly as written.
type Record struct {
	Summary
	Photos   json.RawMessage `json:"photos"`
	Inputs   json.RawMessage `json:"inputs"`
	Estimate json.RawMessage `json:"estimate"`
}

// PhotoRefs decodes the stored photo references. Malformed JSON yields none.
func (r Record) PhotoRefs() []string {
	var photos []string
	if err := json.Unmarshal(r.Photos, &photos); err != nil {
		return nil
	}
	return photos
}

// DecodeInputs decodes the stored inputs snapshot.
func (r Record) DecodeInputs() (pricing.Inputs, bool) {
	var in pricing.Inputs
	if err := json.Unmarshal(r.Inputs, &in); err != nil {
		return pricing.Inputs{}, false
	}
	return in, true
}

// DecodeEstimate decodes the stored estimate snapshot.
func (r Record) DecodeEstimate() (pricing.Result, bool) {
	var res pricing.Result
	if err := json.Unmarshal(r.Estimate, &res); err != nil {
		return pricing.Result{}, false
	}
	return res, true
}

// PhotoSummary renders photo references for plain-text views. Inline data
// URIs are replaced by a positional placeholder.
func PhotoSummary(photos []string, sep string) string {
	parts := make([]string, 0, len(photos))
	for i, photo := range photos {
		if strings.HasPrefix(photo, "data:") {
			parts = append(parts, fmt.Sprintf("inline-photo-%d", i+1))
			continue
		}
		parts = append(parts, photo)
	}
	return strings.Join(parts, sep)
}
