package scoring

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

const (
	availabilityMaxPoints     = 10
	availabilityNoMatchPoints = 5
	availabilityNoPrefPoints  = 8
	availabilityNoDatePoints  = 5
)

var dayAliases = map[string][]time.Weekday{
	"sunday":    {time.Sunday},
	"sun":       {time.Sunday},
	"monday":    {time.Monday},
	"mon":       {time.Monday},
	"tuesday":   {time.Tuesday},
	"tue":       {time.Tuesday},
	"tues":      {time.Tuesday},
	"wednesday": {time.Wednesday},
	"wed":       {time.Wednesday},
	"thursday":  {time.Thursday},
	"thu":       {time.Thursday},
	"thurs":     {time.Thursday},
	"friday":    {time.Friday},
	"fri":       {time.Friday},
	"saturday":  {time.Saturday},
	"sat":       {time.Saturday},
	"weekday":   {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	"weekdays":  {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	"weekend":   {time.Saturday, time.Sunday},
	"weekends":  {time.Saturday, time.Sunday},
}

// AvailabilityFactor checks whether the opportunity runs on a day the volunteer prefers.
//
// Points:
//   - Volunteer has no preferred days: 8
//   - Opportunity has no start date: 5
//   - Start date (or, for recurring opportunities, any occurrence in its first week) on a preferred day: 10
//   - Otherwise: 5
type AvailabilityFactor struct{}

func NewAvailabilityFactor() *AvailabilityFactor {
	return &AvailabilityFactor{}
}

func (f *AvailabilityFactor) Name() string {
	return "Availability"
}

func (f *AvailabilityFactor) MaxPoints() float64 {
	return availabilityMaxPoints
}

func (f *AvailabilityFactor) Evaluate(in *Input) FactorScore {
	if len(normalize(in.Volunteer.PreferredDays)) == 0 {
		return FactorScore{Points: availabilityNoPrefPoints, Reason: "no availability preferences"}
	}
	// Days that do not parse still count as listed preferences; they just never match
	preferred := preferredWeekdays(in.Volunteer.PreferredDays)

	if in.Opportunity.StartDate == nil {
		return FactorScore{Points: availabilityNoDatePoints, Reason: "opportunity has no dates"}
	}

	for _, day := range occurrenceWeekdays(in.Opportunity) {
		if preferred[day] {
			return FactorScore{Points: availabilityMaxPoints, Reason: "runs on a preferred day (" + day.String() + ")"}
		}
	}

	return FactorScore{Points: availabilityNoMatchPoints, Reason: "not on a preferred day"}
}

// preferredWeekdays parses free-text day preferences into a weekday set
func preferredWeekdays(days []string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool)
	for _, d := range days {
		for _, wd := range dayAliases[strings.ToLower(strings.TrimSpace(d))] {
			set[wd] = true
		}
	}
	return set
}

// occurrenceWeekdays returns the weekday of the start date plus, for recurring opportunities,
// the weekdays of every occurrence during the first week. Invalid rules are ignored.
func occurrenceWeekdays(o *db.Opportunity) []time.Weekday {
	start := *o.StartDate
	days := []time.Weekday{start.Weekday()}

	if strings.TrimSpace(o.Recurrence) == "" {
		return days
	}

	opt, err := rrule.StrToROption(o.Recurrence)
	if err != nil {
		return days
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return days
	}

	seen := map[time.Weekday]bool{start.Weekday(): true}
	for _, occ := range rule.Between(start, start.AddDate(0, 0, 7), true) {
		if !seen[occ.Weekday()] {
			seen[occ.Weekday()] = true
			days = append(days, occ.Weekday())
		}
	}
	return days
}
