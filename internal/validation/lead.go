package validation

import (
	"strings"

	"github.com/Simplici0/quickestimate/internal/lead"
	"github.com/Simplici0/quickestimate/internal/pricing"
)

// Contact is the customer contact block of a lead submission.
type Contact struct {
	Name  string `json:"name" validate:"min=1,max=200"`
	Phone string `json:"phone" validate:"min=7,max=30"`
	Email string `json:"email" validate:"required,email"`
	Zip   string `json:"zip" validate:"min=5,max=10"`
}

// Estimate snapshots come from the engine's own JSON, so their numbers are
// strict: numeric strings are rejected here, unlike in estimate inputs.
type rangePayload struct {
	Base *float64 `json:"base" validate:"required"`
	Low  *float64 `json:"low" validate:"required"`
	High *float64 `json:"high" validate:"required"`
}

func (p *rangePayload) rng() pricing.Range {
	return pricing.Range{Base: *p.Base, Low: *p.Low, High: *p.High}
}

type lineItemsPayload struct {
	Materials *rangePayload `json:"materials" validate:"required"`
	Labor     *rangePayload `json:"labor" validate:"required"`
}

type resultPayload struct {
	Quantity             *float64          `json:"quantity" validate:"required"`
	MaterialCost         *float64          `json:"materialCost" validate:"required"`
	LaborHours           *float64          `json:"laborHours" validate:"required"`
	LaborCost            *float64          `json:"laborCost" validate:"required"`
	Subtotal             *float64          `json:"subtotal" validate:"required"`
	ComplexityMultiplier *float64          `json:"complexityMultiplier" validate:"required"`
	AdjustedSubtotal     *float64          `json:"adjustedSubtotal" validate:"required"`
	LowEstimate          *float64          `json:"lowEstimate" validate:"required"`
	HighEstimate         *float64          `json:"highEstimate" validate:"required"`
	LineItems            *lineItemsPayload `json:"lineItems" validate:"required"`
}

func (p resultPayload) result() pricing.Result {
	return pricing.Result{
		Quantity:             *p.Quantity,
		MaterialCost:         *p.MaterialCost,
		LaborHours:           *p.LaborHours,
		LaborCost:            *p.LaborCost,
		Subtotal:             *p.Subtotal,
		ComplexityMultiplier: *p.ComplexityMultiplier,
		AdjustedSubtotal:     *p.AdjustedSubtotal,
		LowEstimate:          *p.LowEstimate,
		HighEstimate:         *p.HighEstimate,
		LineItems: pricing.LineItems{
			Materials: p.LineItems.Materials.rng(),
			Labor:     p.LineItems.Labor.rng(),
		},
	}
}

// DecodeEstimate parses a client-supplied estimate snapshot. Every numeric
// field must be present; the values themselves are taken as shown to the
// customer and are not recomputed.
func DecodeEstimate(data []byte) (pricing.Result, error) {
	var payload resultPayload
	if verrs := decode(data, &payload); !verrs.empty() {
		return pricing.Result{}, verrs
	}
	if verrs := check(payload); !verrs.empty() {
		return pricing.Result{}, verrs
	}
	return payload.result(), nil
}

// Lead validates a submission's contact block and estimate snapshot
// together and returns the lead ready to persist. Photos are attached by
// the caller once they are stored.
func Lead(c Contact, inputs pricing.Inputs, estimateJSON []byte) (lead.Submission, error) {
	c = Contact{
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.TrimSpace(c.Email),
		Zip:   strings.TrimSpace(c.Zip),
	}

	verrs := check(c)
	estimate, err := DecodeEstimate(estimateJSON)
	if err != nil {
		if estErrs, ok := AsErrors(err); ok {
			verrs.merge("estimate", estErrs)
		}
	}
	if !verrs.empty() {
		return lead.Submission{}, verrs
	}

	return lead.Submission{
		Name:     c.Name,
		Phone:    c.Phone,
		Email:    c.Email,
		Zip:      c.Zip,
		Photos:   []string{},
		Inputs:   inputs,
		Estimate: estimate,
	}, nil
}
