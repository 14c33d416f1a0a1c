package pricing

import "math"

const (
	// baselineHeightFeet is the structure height priced at factor 1.
	baselineHeightFeet = 6.0
	// minProductionRate floors productionRatePerHour in the labor-hours division.
	minProductionRate = 0.25
)

// ProjectType identifies the kind of job being estimated.
type ProjectType string

const (
	ProjectFence          ProjectType = "Fence"
	ProjectDeck           ProjectType = "Deck"
	ProjectPergola        ProjectType = "Pergola"
	ProjectRepairHandyman ProjectType = "Repair/Handyman"
)

// ProjectTypes lists every supported project type in display order.
var ProjectTypes = []ProjectType{ProjectFence, ProjectDeck, ProjectPergola, ProjectRepairHandyman}

// Valid reports whether p is one of the supported project types.
func (p ProjectType) Valid() bool {
	switch p {
	case ProjectFence, ProjectDeck, ProjectPergola, ProjectRepairHandyman:
		return true
	default:
		return false
	}
}

// ComplexityLevel grades one difficulty axis of a job.
type ComplexityLevel string

const (
	LevelEasy      ComplexityLevel = "easy"
	LevelStandard  ComplexityLevel = "standard"
	LevelDifficult ComplexityLevel = "difficult"
)

// ComplexityLevels lists every complexity level from cheapest to most expensive.
var ComplexityLevels = []ComplexityLevel{LevelEasy, LevelStandard, LevelDifficult}

// Valid reports whether l is one of the supported complexity levels.
func (l ComplexityLevel) Valid() bool {
	switch l {
	case LevelEasy, LevelStandard, LevelDifficult:
		return true
	default:
		return false
	}
}

// Dimension names one of the optional measurement fields of Dimensions.
type Dimension string

const (
	DimLinearFeet     Dimension = "linearFeet"
	DimHeightFeet     Dimension = "heightFeet"
	DimSquareFeet     Dimension = "squareFeet"
	DimHoursRequested Dimension = "hoursRequested"
)

// Dimensions holds the raw measurements supplied by the client. Only the
// field named by the project's measurement (plus height) is consulted.
type Dimensions struct {
	LinearFeet     *float64 `json:"linearFeet,omitempty" yaml:"linearFeet,omitempty"`
	HeightFeet     *float64 `json:"heightFeet,omitempty" yaml:"heightFeet,omitempty"`
	SquareFeet     *float64 `json:"squareFeet,omitempty" yaml:"squareFeet,omitempty"`
	HoursRequested *float64 `json:"hoursRequested,omitempty" yaml:"hoursRequested,omitempty"`
}

// Value returns the named measurement, or 0 when it is missing, zero or not finite.
func (d Dimensions) Value(dim Dimension) float64 {
	var v *float64
	switch dim {
	case DimLinearFeet:
		v = d.LinearFeet
	case DimHeightFeet:
		v = d.HeightFeet
	case DimSquareFeet:
		v = d.SquareFeet
	case DimHoursRequested:
		v = d.HoursRequested
	}
	return numberOrZero(v)
}

func numberOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

// Inputs are the project parameters a client submits for pricing.
type Inputs struct {
	ProjectType ProjectType     `json:"projectType" yaml:"projectType"`
	Dimensions  Dimensions      `json:"dimensions" yaml:"dimensions"`
	Access      ComplexityLevel `json:"access" yaml:"access"`
	DemoHaulOff ComplexityLevel `json:"demoHaulOff" yaml:"demoHaulOff"`
	Slope       ComplexityLevel `json:"slope" yaml:"slope"`
	Notes       string          `json:"notes" yaml:"notes"`
}

// Range is one line item reported at its base value and at both ends of the estimate range.
type Range struct {
	Base float64 `json:"base"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// LineItems itemizes an estimate into materials and labor.
type LineItems struct {
	Materials Range `json:"materials"`
	Labor     Range `json:"labor"`
}

// Result is the full computed estimate. It is persisted with a lead as a
// snapshot and never recomputed.
type Result struct {
	Quantity             float64   `json:"quantity"`
	MaterialCost         float64   `json:"materialCost"`
	LaborHours           float64   `json:"laborHours"`
	LaborCost            float64   `json:"laborCost"`
	Subtotal             float64   `json:"subtotal"`
	ComplexityMultiplier float64   `json:"complexityMultiplier"`
	AdjustedSubtotal     float64   `json:"adjustedSubtotal"`
	LowEstimate          float64   `json:"lowEstimate"`
	HighEstimate         float64   `json:"highEstimate"`
	LineItems            LineItems `json:"lineItems"`
}

// Finite reports whether every figure in r is a finite number. Extreme
// dimensions can overflow to +Inf, which has no JSON encoding.
func (r Result) Finite() bool {
	for _, v := range []float64{
		r.Quantity, r.MaterialCost, r.LaborHours, r.LaborCost, r.Subtotal,
		r.ComplexityMultiplier, r.AdjustedSubtotal, r.LowEstimate, r.HighEstimate,
		r.LineItems.Materials.Base, r.LineItems.Materials.Low, r.LineItems.Materials.High,
		r.LineItems.Labor.Base, r.LineItems.Labor.Low, r.LineItems.Labor.High,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Calculate prices a project from its inputs and the current settings.
//
// The minimum charge floors Subtotal before the complexity multiplier is
// applied. Line items are reported from the unfloored material and labor
// costs, so when the minimum charge dominates their bases do not add up to
// Subtotal.
func Calculate(in Inputs, s Settings) Result {
	cfg, _ := s.ProjectConfigs.For(in.ProjectType)

	quantity := math.Max(1, in.Dimensions.Value(cfg.Measurement))
	heightFactor := math.Max(1, in.Dimensions.Value(DimHeightFeet)/baselineHeightFeet)

	materials := quantity * cfg.UnitMaterialCost * heightFactor

	laborHours := cfg.LaborHoursBase + quantity/math.Max(cfg.ProductionRatePerHour, minProductionRate)
	labor := laborHours * s.LaborRatePerHour * heightFactor

	subtotal := math.Max(materials+labor, cfg.MinimumCharge)

	multiplier := s.ComplexityMultipliers.Access.For(in.Access) *
		s.ComplexityMultipliers.DemoHaulOff.For(in.DemoHaulOff) *
		s.ComplexityMultipliers.Slope.For(in.Slope)

	adjusted := subtotal * multiplier

	return Result{
		Quantity:             quantity,
		MaterialCost:         materials,
		LaborHours:           laborHours,
		LaborCost:            labor,
		Subtotal:             subtotal,
		ComplexityMultiplier: multiplier,
		AdjustedSubtotal:     adjusted,
		LowEstimate:          adjusted * s.LowFactor,
		HighEstimate:         adjusted * s.HighFactor,
		LineItems: LineItems{
			Materials: lineItem(materials, multiplier, s),
			Labor:     lineItem(labor, multiplier, s),
		},
	}
}

func lineItem(base, multiplier float64, s Settings) Range {
	return Range{
		Base: base,
		Low:  base * s.LowFactor * multiplier,
		High: base * s.HighFactor * multiplier,
	}
}

// RequiredFields returns the dimension fields a client must supply for p.
func RequiredFields(p ProjectType) []Dimension {
	switch p {
	case ProjectFence:
		return []Dimension{DimLinearFeet, DimHeightFeet}
	case ProjectDeck, ProjectPergola:
		return []Dimension{DimSquareFeet, DimHeightFeet}
	case ProjectRepairHandyman:
		return []Dimension{DimHoursRequested}
	default:
		return []Dimension{}
	}
}
