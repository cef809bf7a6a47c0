// Package vitals holds the canonical vitals value type and the
// draft/autosave store for vitals capture.
package vitals

import (
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
)

// Measurements is the canonical vitals payload. All fields are optional;
// present values are validated against physiological bounds before any write.
type Measurements struct {
	TemperatureC    *float64 `json:"temperature_c,omitempty"`
	HeartRateBPM    *float64 `json:"heart_rate_bpm,omitempty"`
	SystolicMmHg    *float64 `json:"systolic_mmhg,omitempty"`
	DiastolicMmHg   *float64 `json:"diastolic_mmhg,omitempty"`
	RespiratoryRate *float64 `json:"respiratory_rate,omitempty"`
	SpO2Percent     *float64 `json:"spo2_percent,omitempty"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	HeightCm        *float64 `json:"height_cm,omitempty"`
}

type bound struct {
	field    string
	min, max float64
}

var bounds = []struct {
	value func(*Measurements) *float64
	bound
}{
	{func(m *Measurements) *float64 { return m.TemperatureC }, bound{"temperature_c", 30, 45}},
	{func(m *Measurements) *float64 { return m.HeartRateBPM }, bound{"heart_rate_bpm", 20, 300}},
	{func(m *Measurements) *float64 { return m.SystolicMmHg }, bound{"systolic_mmhg", 50, 300}},
	{func(m *Measurements) *float64 { return m.DiastolicMmHg }, bound{"diastolic_mmhg", 20, 200}},
	{func(m *Measurements) *float64 { return m.RespiratoryRate }, bound{"respiratory_rate", 4, 80}},
	{func(m *Measurements) *float64 { return m.SpO2Percent }, bound{"spo2_percent", 0, 100}},
	{func(m *Measurements) *float64 { return m.WeightKg }, bound{"weight_kg", 0.3, 700}},
	{func(m *Measurements) *float64 { return m.HeightCm }, bound{"height_cm", 20, 280}},
}

// Validate checks every present measurement against its physiological bound.
func (m *Measurements) Validate() error {
	if m == nil {
		return nil
	}
	for _, b := range bounds {
		v := b.value(m)
		if v == nil {
			continue
		}
		if *v < b.min || *v > b.max {
			return workflow.Invalid(b.field, "value %g outside range [%g, %g]", *v, b.min, b.max)
		}
	}
	return nil
}

// IsEmpty reports whether no measurement is present.
func (m *Measurements) IsEmpty() bool {
	if m == nil {
		return true
	}
	for _, b := range bounds {
		if b.value(m) != nil {
			return false
		}
	}
	return true
}
