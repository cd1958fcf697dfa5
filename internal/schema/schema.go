// Package schema defines the fixed column schema and validation rules for the
// AI4I 2020 manufacturing sensor dataset. Pure data, no behavior: the validator
// and KPI aggregator consume a Schema constructed once at startup.
package schema

// Column names must match the CSV header exactly, including bracketed units.
const (
	ColUDI         = "UDI"
	ColProductID   = "Product ID"
	ColType        = "Type"
	ColAirTemp     = "Air temperature [K]"
	ColProcessTemp = "Process temperature [K]"
	ColRotSpeed    = "Rotational speed [rpm]"
	ColTorque      = "Torque [Nm]"
	ColToolWear    = "Tool wear [min]"
	ColTarget      = "Machine failure"

	// ColTempDelta is derived by the feature step; absent in raw data.
	ColTempDelta = "Temp_Delta [K]"
)

// RangeRule is a physical constraint for one numeric column.
// StrictPositive rejects values <= Min rather than < Min.
type RangeRule struct {
	Column         string
	Min            *float64
	Max            *float64
	StrictPositive bool
}

// Schema holds the full column registry for the dataset.
type Schema struct {
	RequiredColumns    []string
	TypeCol            string
	ValidTypes         []string // declared order doubles as the report sort order
	ContinuousFeatures []string
	TargetCol          string
	FailureModeCols    []string
	ModeNames          map[string]string
	RangeRules         []RangeRule
	QuantileLow        float64
	QuantileHigh       float64
}

// Default returns the canonical schema for the AI4I 2020 dataset.
func Default() *Schema {
	zero := 0.0

	return &Schema{
		RequiredColumns: []string{
			ColUDI,
			ColProductID,
			ColType,
			ColAirTemp,
			ColProcessTemp,
			ColRotSpeed,
			ColTorque,
			ColToolWear,
			ColTarget,
			"TWF",
			"HDF",
			"PWF",
			"OSF",
			"RNF",
		},
		TypeCol:    ColType,
		ValidTypes: []string{"L", "M", "H"},
		ContinuousFeatures: []string{
			ColAirTemp,
			ColProcessTemp,
			ColRotSpeed,
			ColTorque,
			ColToolWear,
		},
		TargetCol:       ColTarget,
		FailureModeCols: []string{"TWF", "HDF", "PWF", "OSF", "RNF"},
		ModeNames: map[string]string{
			"TWF": "Tool Wear Failure",
			"HDF": "Heat Dissipation Failure",
			"PWF": "Power Failure",
			"OSF": "Overstrain Failure",
			"RNF": "Random Failure",
		},
		RangeRules: []RangeRule{
			{Column: ColTorque, Min: &zero},
			{Column: ColToolWear, Min: &zero},
			{Column: ColRotSpeed, Min: &zero, StrictPositive: true},
			{Column: ColAirTemp, Min: &zero, StrictPositive: true},
			{Column: ColProcessTemp, Min: &zero, StrictPositive: true},
		},
		QuantileLow:  0.10,
		QuantileHigh: 0.90,
	}
}

// FlagColumns returns the target column followed by all failure mode columns.
// These are the columns required to hold only 0/1 values.
func (s *Schema) FlagColumns() []string {
	cols := make([]string, 0, 1+len(s.FailureModeCols))
	cols = append(cols, s.TargetCol)
	cols = append(cols, s.FailureModeCols...)
	return cols
}

// TypeOrder returns the sort position of a product type in the declared
// domain order, or false if the value is outside the domain.
func (s *Schema) TypeOrder(t string) (int, bool) {
	for i, v := range s.ValidTypes {
		if v == t {
			return i, true
		}
	}
	return 0, false
}
