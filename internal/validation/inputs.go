package validation

import "github.com/Simplici0/quickestimate/internal/pricing"

type dimensionsPayload struct {
	LinearFeet     *Number `json:"linearFeet" validate:"omitempty,gte=0"`
	HeightFeet     *Number `json:"heightFeet" validate:"omitempty,gte=0"`
	SquareFeet     *Number `json:"squareFeet" validate:"omitempty,gte=0"`
	HoursRequested *Number `json:"hoursRequested" validate:"omitempty,gte=0"`
}

type inputsPayload struct {
	ProjectType string             `json:"projectType" validate:"required,projecttype"`
	Dimensions  *dimensionsPayload `json:"dimensions" validate:"required"`
	Access      string             `json:"access" validate:"required,complexity"`
	DemoHaulOff string             `json:"demoHaulOff" validate:"required,complexity"`
	Slope       string             `json:"slope" validate:"required,complexity"`
	Notes       *string            `json:"notes" validate:"omitempty,max=1000"`
}

func (p inputsPayload) inputs() pricing.Inputs {
	in := pricing.Inputs{
		ProjectType: pricing.ProjectType(p.ProjectType),
		Access:      pricing.ComplexityLevel(p.Access),
		DemoHaulOff: pricing.ComplexityLevel(p.DemoHaulOff),
		Slope:       pricing.ComplexityLevel(p.Slope),
	}
	if p.Dimensions != nil {
		in.Dimensions = pricing.Dimensions{
			LinearFeet:     p.Dimensions.LinearFeet.float(),
			HeightFeet:     p.Dimensions.HeightFeet.float(),
			SquareFeet:     p.Dimensions.SquareFeet.float(),
			HoursRequested: p.Dimensions.HoursRequested.float(),
		}
	}
	if p.Notes != nil {
		in.Notes = *p.Notes
	}
	return in
}

// DecodeInputs parses and validates estimate inputs. Dimension values may
// be JSON numbers or numeric strings; notes default to empty.
func DecodeInputs(data []byte) (pricing.Inputs, error) {
	var payload inputsPayload
	if verrs := decode(data, &payload); !verrs.empty() {
		return pricing.Inputs{}, verrs
	}
	if verrs := check(payload); !verrs.empty() {
		return pricing.Inputs{}, verrs
	}
	return payload.inputs(), nil
}
