package scoring

import "fmt"

const (
	skillsMaxPoints = 40
	// Opportunities without required skills get the midpoint so they do not float to the top
	skillsUnconstrainedPoints = 20
)

// SkillsFactor rewards volunteers whose skills cover the opportunity's required skills.
//
// Points:
//   - No required skills: flat 20
//   - Otherwise: (required skills overlapped by any volunteer skill / required skills) * 40
//
// A required skill is overlapped when it and a volunteer skill contain one another, ignoring case.
type SkillsFactor struct{}

func NewSkillsFactor() *SkillsFactor {
	return &SkillsFactor{}
}

func (f *SkillsFactor) Name() string {
	return "Skills"
}

func (f *SkillsFactor) MaxPoints() float64 {
	return skillsMaxPoints
}

func (f *SkillsFactor) Evaluate(in *Input) FactorScore {
	required := normalize(in.Opportunity.RequiredSkills)
	if len(required) == 0 {
		return FactorScore{Points: skillsUnconstrainedPoints, Reason: "opportunity has no required skills"}
	}

	skills := normalize(in.Volunteer.Skills)
	if len(skills) == 0 {
		return FactorScore{Points: 0, Reason: "volunteer lists no skills"}
	}

	matched := 0
	for _, req := range required {
		for _, skill := range skills {
			if overlaps(req, skill) {
				matched++
				break
			}
		}
	}

	return FactorScore{
		Points: float64(matched) / float64(len(required)) * skillsMaxPoints,
		Reason: fmt.Sprintf("%d of %d required skills", matched, len(required)),
	}
}
