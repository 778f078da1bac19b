package cost

import "github.com/getclawkit/clawkit/internal/pricing"

// Total is the monthly cost of a single model.
type Total struct {
	Model   pricing.Entry `json:"model"`
	Monthly float64       `json:"monthly"`
}

// Point is one step of the chart series. Values holds the monthly
// contribution of the step per model ID, Cumulative the running total up to
// and including the step.
type Point struct {
	Step       int                `json:"step"`
	Context    float64            `json:"contextTokens"`
	Values     map[string]float64 `json:"values"`
	Cumulative map[string]float64 `json:"cumulative"`
}

// Projection is the result of running the simulator over a list of models.
type Projection struct {
	Params Params  `json:"params"`
	Totals []Total `json:"totals"`
	Series []Point `json:"series"`
}

// Project computes the totals and the chart series for the given models, in
// the order they were given. Params are used as is; callers clamp user input
// first.
func Project(p Params, models []pricing.Entry) Projection {
	proj := Projection{
		Params: p,
		Totals: make([]Total, len(models)),
		Series: make([]Point, 0, max(p.StepsPerRun, 0)),
	}
	running := make([]float64, len(models))
	for s := 1; s <= p.StepsPerRun; s++ {
		pt := Point{
			Step:       s,
			Context:    ContextTokens(p, s),
			Values:     make(map[string]float64, len(models)),
			Cumulative: make(map[string]float64, len(models)),
		}
		for i, m := range models {
			v := MonthlyStep(p, m, s)
			running[i] += v
			pt.Values[m.ID] = v
			pt.Cumulative[m.ID] = running[i]
		}
		proj.Series = append(proj.Series, pt)
	}
	for i, m := range models {
		proj.Totals[i] = Total{Model: m, Monthly: running[i]}
	}
	return proj
}

// Total returns the monthly total for the given model ID.
func (p Projection) Total(id string) (float64, bool) {
	for _, t := range p.Totals {
		if t.Model.ID == id {
			return t.Monthly, true
		}
	}
	return 0, false
}

// Cheapest returns the cheapest model that is not free. Free models are
// ignored so the comparison is between paid APIs.
func (p Projection) Cheapest() (Total, bool) {
	var (
		best  Total
		found bool
	)
	for _, t := range p.Totals {
		if t.Model.Free() {
			continue
		}
		if !found || t.Monthly < best.Monthly {
			best, found = t, true
		}
	}
	return best, found
}

// Savings returns how much is saved per month by moving from one model to
// another, and the saving as a whole percentage of the original cost.
func (p Projection) Savings(from, to string) (float64, int, bool) {
	a, ok := p.Total(from)
	if !ok {
		return 0, 0, false
	}
	b, ok := p.Total(to)
	if !ok {
		return 0, 0, false
	}
	saved := a - b
	if a == 0 {
		return saved, 0, true
	}
	pct := int(saved/a*100 + 0.5)
	return saved, pct, true
}
