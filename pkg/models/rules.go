package models

// CalibrationRule is a linear correction applied to raw values of one
// reading type: corrected = raw*Multiplier + Offset.
type CalibrationRule struct {
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
	Offset     float64 `json:"offset" mapstructure:"offset"`
}

// CalibrationTable maps every known reading type to its calibration rule.
// The table is loaded once at startup and never mutated.
type CalibrationTable map[ReadingType]CalibrationRule

// RangeRule bounds the plausible corrected values of one reading type.
type RangeRule struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// RangeTable maps every known reading type to its expected range.
type RangeTable map[ReadingType]RangeRule

// MissingTypes returns the known reading types that have no entry in the
// table, in the canonical order. An incomplete table is a configuration
// error for the calibrator and anomaly detector.
func (t CalibrationTable) MissingTypes() []ReadingType {
	var missing []ReadingType
	for _, rt := range AllReadingTypes {
		if _, ok := t[rt]; !ok {
			missing = append(missing, rt)
		}
	}
	return missing
}

// MissingTypes returns the known reading types absent from the range table.
func (t RangeTable) MissingTypes() []ReadingType {
	var missing []ReadingType
	for _, rt := range AllReadingTypes {
		if _, ok := t[rt]; !ok {
			missing = append(missing, rt)
		}
	}
	return missing
}

// DefaultCalibrationTable returns the factory calibration constants for the
// deployed sensor fleet.
func DefaultCalibrationTable() CalibrationTable {
	return CalibrationTable{
		ReadingTemperature:    {Multiplier: 1.01, Offset: -0.2},
		ReadingHumidity:       {Multiplier: 1.00, Offset: 0.0},
		ReadingSoilMoisture:   {Multiplier: 0.98, Offset: 0.5},
		ReadingLightIntensity: {Multiplier: 1.00, Offset: 0.0},
		ReadingBatteryLevel:   {Multiplier: 1.00, Offset: 0.0},
	}
}

// DefaultRangeTable returns the expected physical ranges for the deployed
// sensor fleet.
func DefaultRangeTable() RangeTable {
	return RangeTable{
		ReadingTemperature:    {Min: -10.0, Max: 60.0},
		ReadingHumidity:       {Min: 0.0, Max: 100.0},
		ReadingSoilMoisture:   {Min: 0.0, Max: 1.0},
		ReadingLightIntensity: {Min: 0.0, Max: 2000.0},
		ReadingBatteryLevel:   {Min: 0.0, Max: 100.0},
	}
}
