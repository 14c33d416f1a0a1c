package pricing

// LevelMultipliers maps each complexity level of one axis to a cost multiplier.
type LevelMultipliers struct {
	Easy      float64 `json:"easy" yaml:"easy"`
	Standard  float64 `json:"standard" yaml:"standard"`
	Difficult float64 `json:"difficult" yaml:"difficult"`
}

// For returns the multiplier for level. Unknown levels are neutral (1).
func (m LevelMultipliers) For(level ComplexityLevel) float64 {
	switch level {
	case LevelEasy:
		return m.Easy
	case LevelStandard:
		return m.Standard
	case LevelDifficult:
		return m.Difficult
	default:
		return 1
	}
}

// ComplexityMultipliers holds the three independent complexity axes.
type ComplexityMultipliers struct {
	Access      LevelMultipliers `json:"access" yaml:"access"`
	DemoHaulOff LevelMultipliers `json:"demoHaulOff" yaml:"demoHaulOff"`
	Slope       LevelMultipliers `json:"slope" yaml:"slope"`
}

// ProjectConfig holds the cost model of one project type.
type ProjectConfig struct {
	UnitMaterialCost      float64   `json:"unitMaterialCost" yaml:"unitMaterialCost"`
	ProductionRatePerHour float64   `json:"productionRatePerHour" yaml:"productionRatePerHour"`
	LaborHoursBase        float64   `json:"laborHoursBase" yaml:"laborHoursBase"`
	MinimumCharge         float64   `json:"minimumCharge" yaml:"minimumCharge"`
	Measurement           Dimension `json:"measurement" yaml:"measurement"`
}

// ProjectConfigs carries exactly one ProjectConfig per project type.
type ProjectConfigs struct {
	Fence          ProjectConfig `json:"Fence" yaml:"Fence"`
	Deck           ProjectConfig `json:"Deck" yaml:"Deck"`
	Pergola        ProjectConfig `json:"Pergola" yaml:"Pergola"`
	RepairHandyman ProjectConfig `json:"Repair/Handyman" yaml:"Repair/Handyman"`
}

// For returns the config of p; ok is false for unknown project types.
func (c ProjectConfigs) For(p ProjectType) (cfg ProjectConfig, ok bool) {
	switch p {
	case ProjectFence:
		return c.Fence, true
	case ProjectDeck:
		return c.Deck, true
	case ProjectPergola:
		return c.Pergola, true
	case ProjectRepairHandyman:
		return c.RepairHandyman, true
	default:
		return ProjectConfig{}, false
	}
}

// MeasurementFor returns the dimension that drives quantity for p. It never
// varies per settings instance.
func MeasurementFor(p ProjectType) Dimension {
	switch p {
	case ProjectFence:
		return DimLinearFeet
	case ProjectDeck, ProjectPergola:
		return DimSquareFeet
	case ProjectRepairHandyman:
		return DimHoursRequested
	default:
		return ""
	}
}

// Settings is the operator-tunable pricing configuration. It is passed
// explicitly to Calculate; a single record is persisted by the store.
type Settings struct {
	LaborRatePerHour      float64               `json:"laborRatePerHour" yaml:"laborRatePerHour"`
	LowFactor             float64               `json:"lowFactor" yaml:"lowFactor"`
	HighFactor            float64               `json:"highFactor" yaml:"highFactor"`
	ComplexityMultipliers ComplexityMultipliers `json:"complexityMultipliers" yaml:"complexityMultipliers"`
	ProjectConfigs        ProjectConfigs        `json:"projectConfigs" yaml:"projectConfigs"`
}

// DefaultSettings returns the settings seeded on first boot.
func DefaultSettings() Settings {
	return Settings{
		LaborRatePerHour: 85,
		LowFactor:        0.9,
		HighFactor:       1.15,
		ComplexityMultipliers: ComplexityMultipliers{
			Access:      LevelMultipliers{Easy: 0.95, Standard: 1, Difficult: 1.2},
			DemoHaulOff: LevelMultipliers{Easy: 0.95, Standard: 1, Difficult: 1.25},
			Slope:       LevelMultipliers{Easy: 0.95, Standard: 1, Difficult: 1.2},
		},
		ProjectConfigs: ProjectConfigs{
			Fence: ProjectConfig{
				UnitMaterialCost:      42,
				ProductionRatePerHour: 8,
				LaborHoursBase:        3,
				MinimumCharge:         1200,
				Measurement:           DimLinearFeet,
			},
			Deck: ProjectConfig{
				UnitMaterialCost:      24,
				ProductionRatePerHour: 10,
				LaborHoursBase:        8,
				MinimumCharge:         3000,
				Measurement:           DimSquareFeet,
			},
			Pergola: ProjectConfig{
				UnitMaterialCost:      36,
				ProductionRatePerHour: 7,
				LaborHoursBase:        10,
				MinimumCharge:         3500,
				Measurement:           DimSquareFeet,
			},
			RepairHandyman: ProjectConfig{
				UnitMaterialCost:      18,
				ProductionRatePerHour: 1,
				LaborHoursBase:        2,
				MinimumCharge:         300,
				Measurement:           DimHoursRequested,
			},
		},
	}
}
