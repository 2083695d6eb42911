package scoring

import "strings"

const (
	interestMaxPoints     = 30
	interestNoMatchPoints = 10
	interestUnknownPoints = 15
)

// InterestFactor compares the volunteer's interests with the opportunity category.
//
// Points:
//   - Any interest equal to or overlapping the category: 30
//   - Both present, no match: 10
//   - Either missing: 15
type InterestFactor struct{}

func NewInterestFactor() *InterestFactor {
	return &InterestFactor{}
}

func (f *InterestFactor) Name() string {
	return "Interest"
}

func (f *InterestFactor) MaxPoints() float64 {
	return interestMaxPoints
}

func (f *InterestFactor) Evaluate(in *Input) FactorScore {
	category := strings.TrimSpace(in.Opportunity.Category)
	interests := normalize(in.Volunteer.Interests)
	if category == "" || len(interests) == 0 {
		return FactorScore{Points: interestUnknownPoints, Reason: "interest or category not provided"}
	}

	for _, interest := range interests {
		if overlaps(interest, category) {
			return FactorScore{Points: interestMaxPoints, Reason: "interested in " + category}
		}
	}

	return FactorScore{Points: interestNoMatchPoints, Reason: "no interest in " + category}
}
