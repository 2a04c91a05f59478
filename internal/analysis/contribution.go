package analysis

import (
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
)

// FeatureMax is the historical maximum of one normalization feature.
type FeatureMax struct {
	Name string
	Max  float64
}

// contributionMaxima are the observed training-data maxima, in chart order.
var contributionMaxima = []FeatureMax{
	{Name: "gross_floor_area", Max: 5459749},
	{Name: "room_area", Max: 15176},
	{Name: "capacity", Max: 1595},
	{Name: "apparent_temperature", Max: 42.4},
	{Name: "air_temperature", Max: 44.4},
	{Name: "dew_point_temperature", Max: 23.6},
	{Name: "relative_humidity", Max: 100},
	{Name: "wind_speed", Max: 63.0},
	{Name: "wind_direction", Max: 359},
}

// Maxima returns the normalization maxima in chart order.
func Maxima() []FeatureMax {
	return append([]FeatureMax(nil), contributionMaxima...)
}

// Contributions scales the physical and environmental inputs of r against
// their historical maxima and normalizes the ratios to shares of 100.
//
// This is a display heuristic for the size of the request's inputs. It says
// nothing about what the model learned.
//
// Ratios are not clamped, so a value above its maximum yields a ratio above
// one. When the ratios sum to zero the table is returned undefined.
func Contributions(r features.Record) ContributionTable {
	contribs := make([]Contributor, len(contributionMaxima))
	z := 0.0
	for i, fm := range contributionMaxima {
		v, _ := r.Numeric(fm.Name)
		ratio := v / fm.Max
		contribs[i] = Contributor{
			Name:  fm.Name,
			Value: v,
			Max:   fm.Max,
			Ratio: ratio,
		}
		z += ratio
	}

	if z == 0 {
		return ContributionTable{Defined: false, RatioSum: 0, Contributors: []Contributor{}}
	}

	for i := range contribs {
		contribs[i].Contribution = 100 * contribs[i].Ratio / z
	}

	return ContributionTable{
		Defined:      true,
		RatioSum:     z,
		Contributors: contribs,
	}
}
