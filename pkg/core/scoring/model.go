package scoring

import (
	"math"
	"time"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// Band thresholds. Matching uses the same values as default and minimum score filters.
const (
	ExcellentThreshold = 70
	GoodThreshold      = 50
	FairThreshold      = 30

	MaxScore = 100
)

// Band is the human readable recommendation for a score
type Band string

const (
	BandExcellent Band = "Excellent"
	BandGood      Band = "Good"
	BandFair      Band = "Fair"
	BandPoor      Band = "Poor"
)

// BandFor returns the recommendation band for a score
func BandFor(score int) Band {
	switch {
	case score >= ExcellentThreshold:
		return BandExcellent
	case score >= GoodThreshold:
		return BandGood
	case score >= FairThreshold:
		return BandFair
	default:
		return BandPoor
	}
}

// Input is what every factor sees when scoring a pair
type Input struct {
	Volunteer   *db.Volunteer
	Opportunity *db.Opportunity
	// Now is the reference time for age calculations
	Now time.Time
}

// FactorScore is one line of a score breakdown
type FactorScore struct {
	Name      string
	Points    float64
	MaxPoints float64
	Reason    string
}

// Factor scores one aspect of how well a volunteer fits an opportunity.
// Factors are independent of each other and must not have side effects.
type Factor interface {
	// Name returns a human-readable identifier for this factor
	Name() string

	// MaxPoints is the nominal maximum this factor contributes
	MaxPoints() float64

	// Evaluate returns the points awarded, between 0 and MaxPoints
	Evaluate(in *Input) FactorScore
}

// Result is the compatibility score of a volunteer for an opportunity
type Result struct {
	Value   int
	Factors []FactorScore
	Band    Band
}

// Model sums a set of weighted factors into a 0-100 score
type Model struct {
	factors []Factor
	now     func() time.Time
}

// DefaultFactors returns the standard factor set: skills 40, interest 30, location 20,
// availability 10 and a bonus of up to 5
func DefaultFactors() []Factor {
	return []Factor{
		NewSkillsFactor(),
		NewInterestFactor(),
		NewLocationFactor(),
		NewAvailabilityFactor(),
		NewBonusFactor(),
	}
}

// NewModel creates a model from the given factors, or DefaultFactors when none are given
func NewModel(factors ...Factor) *Model {
	if len(factors) == 0 {
		factors = DefaultFactors()
	}
	return &Model{
		factors: factors,
		now:     time.Now,
	}
}

// WithClock returns a copy of the model using now as its reference time
func (m *Model) WithClock(now func() time.Time) *Model {
	return &Model{factors: m.factors, now: now}
}

// Score computes the compatibility of volunteer v with opportunity o
func (m *Model) Score(v *db.Volunteer, o *db.Opportunity) Result {
	in := &Input{Volunteer: v, Opportunity: o, Now: m.now()}

	factors := make([]FactorScore, 0, len(m.factors))
	total := 0.0
	for _, f := range m.factors {
		fs := f.Evaluate(in)
		fs.Points = clamp(fs.Points, 0, f.MaxPoints())
		fs.Name = f.Name()
		fs.MaxPoints = f.MaxPoints()
		total += fs.Points
		factors = append(factors, fs)
	}

	// The bonus can push the sum over the nominal maximum
	value := int(math.Round(clamp(total, 0, MaxScore)))

	return Result{
		Value:   value,
		Factors: factors,
		Band:    BandFor(value),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
