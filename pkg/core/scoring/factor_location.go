package scoring

import (
	"strings"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
)

const (
	locationMaxPoints          = 20
	locationHybridPoints       = 18
	locationSameStatePoints    = 15
	locationSameCountryPoints  = 10
	locationInsufficientPoints = 10
	locationNoMatchPoints      = 5
)

// LocationFactor scores how practical the opportunity's location is for the volunteer.
//
// Points:
//   - Virtual: 20, hybrid: 18
//   - In person: same city 20, same state 15, same country 10
//   - In person with city, state and country on both sides but no match: 5
//   - Anything less complete: 10
type LocationFactor struct{}

func NewLocationFactor() *LocationFactor {
	return &LocationFactor{}
}

func (f *LocationFactor) Name() string {
	return "Location"
}

func (f *LocationFactor) MaxPoints() float64 {
	return locationMaxPoints
}

func (f *LocationFactor) Evaluate(in *Input) FactorScore {
	o := in.Opportunity
	v := in.Volunteer

	switch model.LocationType(strings.ToLower(strings.TrimSpace(string(o.LocationType)))) {
	case model.LocationVirtual:
		return FactorScore{Points: locationMaxPoints, Reason: "virtual opportunity"}
	case model.LocationHybrid:
		return FactorScore{Points: locationHybridPoints, Reason: "hybrid opportunity"}
	}

	switch {
	case sameText(v.City, o.City):
		return FactorScore{Points: locationMaxPoints, Reason: "same city"}
	case sameText(v.State, o.State):
		return FactorScore{Points: locationSameStatePoints, Reason: "same state"}
	case sameText(v.Country, o.Country):
		return FactorScore{Points: locationSameCountryPoints, Reason: "same country"}
	}

	complete := bothSet(v.City, o.City) && bothSet(v.State, o.State) && bothSet(v.Country, o.Country)
	if complete {
		return FactorScore{Points: locationNoMatchPoints, Reason: "different location"}
	}
	return FactorScore{Points: locationInsufficientPoints, Reason: "insufficient location data"}
}

func bothSet(a, b string) bool {
	return strings.TrimSpace(a) != "" && strings.TrimSpace(b) != ""
}
