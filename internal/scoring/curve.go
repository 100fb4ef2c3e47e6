package scoring

import "math"

// Breakpoint pins a score to an input value.
type Breakpoint struct {
	X     float64
	Score float64
}

// Curve is a tiered piecewise-linear mapping from an input to a 0-100 score.
//
// Points are listed in the order the score degrades (or improves) and may run
// with ascending or descending X. Inputs at or before the first point take
// its score, inputs between points are interpolated and inputs past the last
// point lose Decay points per unit, floored at 0. Boundaries are inclusive.
type Curve struct {
	Points []Breakpoint
	Decay  float64
}

func (c Curve) ascending() bool {
	n := len(c.Points)
	return n < 2 || c.Points[n-1].X >= c.Points[0].X
}

// past reports whether x lies strictly beyond edge in the curve's direction.
func (c Curve) past(x, edge float64) bool {
	if c.ascending() {
		return x > edge
	}
	return x < edge
}

func (c Curve) Score(x float64) float64 {
	if len(c.Points) == 0 {
		return 0
	}

	first := c.Points[0]
	if !c.past(x, first.X) {
		return clamp(first.Score)
	}

	for i := 1; i < len(c.Points); i++ {
		lo, hi := c.Points[i-1], c.Points[i]
		if !c.past(x, hi.X) {
			t := (x - lo.X) / (hi.X - lo.X)
			return clamp(lo.Score + t*(hi.Score-lo.Score))
		}
	}

	last := c.Points[len(c.Points)-1]
	return clamp(last.Score - math.Abs(x-last.X)*c.Decay)
}

// Step is one row of a StepTable.
type Step struct {
	Limit float64
	Score float64
}

// StepTable maps an input to the score of the first step whose limit it
// reaches. With ascending limits a step matches when x <= Limit, with
// descending limits when x >= Limit. Otherwise is used when nothing matches.
type StepTable struct {
	Steps     []Step
	Otherwise float64
}

func (t StepTable) Score(x float64) float64 {
	n := len(t.Steps)
	ascending := n < 2 || t.Steps[n-1].Limit >= t.Steps[0].Limit
	for _, s := range t.Steps {
		if (ascending && x <= s.Limit) || (!ascending && x >= s.Limit) {
			return s.Score
		}
	}
	return t.Otherwise
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// roundScore rounds half away from zero and clamps to [0,100].
func roundScore(score float64) int {
	return int(math.Round(clamp(score)))
}

// LocationCurve builds the distance curve for one point-of-interest type:
// 100 up to excellent, then 75 at good, 50 at fair, 25 at limit and 5 points
// lost per additional kilometer.
func LocationCurve(excellent, good, fair, limit float64) Curve {
	return Curve{
		Points: []Breakpoint{
			{X: excellent, Score: 100},
			{X: good, Score: 75},
			{X: fair, Score: 50},
			{X: limit, Score: 25},
		},
		Decay: 5,
	}
}

var (
	BeachCurve    = LocationCurve(0.5, 1, 2, 5)
	MallCurve     = LocationCurve(1, 2, 5, 10)
	HospitalCurve = LocationCurve(2, 5, 10, 20)
	SchoolCurve   = LocationCurve(1, 2, 5, 10)

	// ValueCurve maps price deviation in percent (negative is cheaper than fair value).
	ValueCurve = Curve{
		Points: []Breakpoint{
			{X: -15, Score: 100},
			{X: -5, Score: 75},
			{X: 0, Score: 50},
			{X: 10, Score: 25},
		},
		Decay: 2,
	}

	// InvestmentCurve maps gross rental yield in percent. Below 2% it runs
	// linearly through the origin (yield x 12.5).
	InvestmentCurve = Curve{
		Points: []Breakpoint{
			{X: 8, Score: 100},
			{X: 6, Score: 75},
			{X: 4, Score: 50},
			{X: 2, Score: 25},
		},
		Decay: 12.5,
	}

	// ValueFallback grades price-per-sqm deviation from the area average.
	ValueFallback = StepTable{
		Steps:     []Step{{-15, 100}, {-5, 75}, {5, 50}, {15, 25}},
		Otherwise: 10,
	}

	// InvestmentFallback grades a yield derived directly from rent and price.
	InvestmentFallback = StepTable{
		Steps:     []Step{{8, 100}, {6, 75}, {4, 50}, {2, 25}},
		Otherwise: 10,
	}
)
