package analysis

type Contributor struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Max          float64 `json:"max"`
	Ratio        float64 `json:"ratio"`
	Contribution float64 `json:"contribution"`
}

// ContributionTable is the chart-ready breakdown of one request.
// Contributors is empty when Defined is false.
type ContributionTable struct {
	Defined      bool          `json:"defined"`
	RatioSum     float64       `json:"ratio_sum"`
	Contributors []Contributor `json:"contributors"`
}

// Get returns the contribution of the named feature.
func (t ContributionTable) Get(name string) (float64, bool) {
	for _, c := range t.Contributors {
		if c.Name == name {
			return c.Contribution, true
		}
	}
	return 0, false
}

// Total sums the contributions of the table.
func (t ContributionTable) Total() float64 {
	s := 0.0
	for _, c := range t.Contributors {
		s += c.Contribution
	}
	return s
}
