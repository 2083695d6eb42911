package scoring

import (
	"strings"
	"time"
)

const (
	bonusMaxPoints        = 5
	bonusExperiencePoints = 3
	bonusAgePoints        = 2

	bonusMinAge = 18
	bonusMaxAge = 65
)

// BonusFactor adds small extras on top of the four main factors.
//
// Points:
//   - +3 if any experience entry mentions a required skill or the category
//   - +2 if the volunteer is between 18 and 65 years old
type BonusFactor struct{}

func NewBonusFactor() *BonusFactor {
	return &BonusFactor{}
}

func (f *BonusFactor) Name() string {
	return "Bonus"
}

func (f *BonusFactor) MaxPoints() float64 {
	return bonusMaxPoints
}

func (f *BonusFactor) Evaluate(in *Input) FactorScore {
	points := 0.0
	var reasons []string

	if hasRelevantExperience(in) {
		points += bonusExperiencePoints
		reasons = append(reasons, "relevant experience")
	}

	if dob := in.Volunteer.DateOfBirth; dob != nil {
		age := ageAt(*dob, in.Now)
		if age >= bonusMinAge && age <= bonusMaxAge {
			points += bonusAgePoints
			reasons = append(reasons, "age in range")
		}
	}

	return FactorScore{Points: points, Reason: strings.Join(reasons, ", ")}
}

func hasRelevantExperience(in *Input) bool {
	terms := normalize(in.Opportunity.RequiredSkills)
	if c := strings.TrimSpace(in.Opportunity.Category); c != "" {
		terms = append(terms, strings.ToLower(c))
	}
	if len(terms) == 0 {
		return false
	}

	for _, exp := range in.Volunteer.Experience {
		text := strings.Join([]string{exp.Title, exp.Organization, exp.Description}, " ")
		for _, term := range terms {
			if overlaps(exp.Title, term) || strings.Contains(strings.ToLower(text), term) {
				return true
			}
		}
	}
	return false
}

// ageAt returns completed years between dob and now
func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
