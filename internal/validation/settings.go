package validation

import "github.com/Simplici0/quickestimate/internal/pricing"

type levelPayload struct {
	Easy      *Number `json:"easy" validate:"required,gt=0"`
	Standard  *Number `json:"standard" validate:"required,gt=0"`
	Difficult *Number `json:"difficult" validate:"required,gt=0"`
}

func (p *levelPayload) multipliers() pricing.LevelMultipliers {
	return pricing.LevelMultipliers{
		Easy:      p.Easy.value(),
		Standard:  p.Standard.value(),
		Difficult: p.Difficult.value(),
	}
}

type complexityPayload struct {
	Access      *levelPayload `json:"access" validate:"required"`
	DemoHaulOff *levelPayload `json:"demoHaulOff" validate:"required"`
	Slope       *levelPayload `json:"slope" validate:"required"`
}

type projectConfigPayload struct {
	UnitMaterialCost      *Number `json:"unitMaterialCost" validate:"required,gte=0"`
	ProductionRatePerHour *Number `json:"productionRatePerHour" validate:"required,gt=0"`
	LaborHoursBase        *Number `json:"laborHoursBase" validate:"required,gte=0"`
	MinimumCharge         *Number `json:"minimumCharge" validate:"required,gte=0"`
	Measurement           string  `json:"measurement" validate:"required"`
}

func (p *projectConfigPayload) config() pricing.ProjectConfig {
	return pricing.ProjectConfig{
		UnitMaterialCost:      p.UnitMaterialCost.value(),
		ProductionRatePerHour: p.ProductionRatePerHour.value(),
		LaborHoursBase:        p.LaborHoursBase.value(),
		MinimumCharge:         p.MinimumCharge.value(),
		Measurement:           pricing.Dimension(p.Measurement),
	}
}

type projectConfigsPayload struct {
	Fence          *projectConfigPayload `json:"Fence" validate:"required"`
	Deck           *projectConfigPayload `json:"Deck" validate:"required"`
	Pergola        *projectConfigPayload `json:"Pergola" validate:"required"`
	RepairHandyman *projectConfigPayload `json:"Repair/Handyman" validate:"required"`
}

func (p *projectConfigsPayload) byType() map[pricing.ProjectType]*projectConfigPayload {
	return map[pricing.ProjectType]*projectConfigPayload{
		pricing.ProjectFence:          p.Fence,
		pricing.ProjectDeck:           p.Deck,
		pricing.ProjectPergola:        p.Pergola,
		pricing.ProjectRepairHandyman: p.RepairHandyman,
	}
}

type settingsPayload struct {
	LaborRatePerHour      *Number                `json:"laborRatePerHour" validate:"required,gt=0"`
	LowFactor             *Number                `json:"lowFactor" validate:"required,gt=0"`
	HighFactor            *Number                `json:"highFactor" validate:"required,gt=0"`
	ComplexityMultipliers *complexityPayload     `json:"complexityMultipliers" validate:"required"`
	ProjectConfigs        *projectConfigsPayload `json:"projectConfigs" validate:"required"`
}

func (p settingsPayload) settings() pricing.Settings {
	return pricing.Settings{
		LaborRatePerHour: p.LaborRatePerHour.value(),
		LowFactor:        p.LowFactor.value(),
		HighFactor:       p.HighFactor.value(),
		ComplexityMultipliers: pricing.ComplexityMultipliers{
			Access:      p.ComplexityMultipliers.Access.multipliers(),
			DemoHaulOff: p.ComplexityMultipliers.DemoHaulOff.multipliers(),
			Slope:       p.ComplexityMultipliers.Slope.multipliers(),
		},
		ProjectConfigs: pricing.ProjectConfigs{
			Fence:          p.ProjectConfigs.Fence.config(),
			Deck:           p.ProjectConfigs.Deck.config(),
			Pergola:        p.ProjectConfigs.Pergola.config(),
			RepairHandyman: p.ProjectConfigs.RepairHandyman.config(),
		},
	}
}

// checkMeasurements enforces that each project config names the dimension
// its project type is measured in.
func checkMeasurements(p settingsPayload, verrs *Errors) {
	if p.ProjectConfigs == nil {
		return
	}
	for _, pt := range pricing.ProjectTypes {
		cfg := p.ProjectConfigs.byType()[pt]
		if cfg == nil || cfg.Measurement == "" {
			continue
		}
		want := pricing.MeasurementFor(pt)
		if pricing.Dimension(cfg.Measurement) != want {
			verrs.addField("projectConfigs."+string(pt)+".measurement", "Invalid literal value, expected \""+string(want)+"\"")
		}
	}
}

// DecodeSettings parses and validates a complete settings document.
// Multipliers, factors and production rates must be positive; costs, base
// hours and minimum charges must be non-negative.
func DecodeSettings(data []byte) (pricing.Settings, error) {
	var payload settingsPayload
	if verrs := decode(data, &payload); !verrs.empty() {
		return pricing.Settings{}, verrs
	}
	verrs := check(payload)
	checkMeasurements(payload, verrs)
	if !verrs.empty() {
		return pricing.Settings{}, verrs
	}
	return payload.settings(), nil
}
