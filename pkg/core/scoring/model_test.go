package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestModel() *Model {
	return NewModel().WithClock(func() time.Time { return fixedNow })
}

func factorPoints(t *testing.T, result Result, name string) float64 {
	t.Helper()
	for _, f := range result.Factors {
		if f.Name == name {
			return f.Points
		}
	}
	t.Fatalf("factor %s not found", name)
	return 0
}

func TestScore_TeachingVirtualScenario(t *testing.T) {
	v := &db.Volunteer{
		Skills:    []string{"Teaching"},
		Interests: []string{"Education"},
	}
	o := &db.Opportunity{
		RequiredSkills: []string{"Teaching", "Cooking"},
		Category:       "Education",
		LocationType:   model.LocationVirtual,
	}

	result := newTestModel().Score(v, o)

	assert.Equal(t, 78, result.Value)
	assert.Equal(t, BandExcellent, result.Band)
	assert.Equal(t, 20.0, factorPoints(t, result, "Skills"))
	assert.Equal(t, 30.0, factorPoints(t, result, "Interest"))
	assert.Equal(t, 20.0, factorPoints(t, result, "Location"))
	assert.Equal(t, 8.0, factorPoints(t, result, "Availability"))
	assert.Equal(t, 0.0, factorPoints(t, result, "Bonus"))
}

func TestScore_CappedAtMaximum(t *testing.T) {
	dob := fixedNow.AddDate(-30, 0, 0)
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) // Monday
	v := &db.Volunteer{
		Skills:        []string{"cooking"},
		Interests:     []string{"food"},
		Experience:    []db.Experience{{Title: "Cooking volunteer"}},
		DateOfBirth:   &dob,
		PreferredDays: []string{"Monday"},
	}
	o := &db.Opportunity{
		RequiredSkills: []string{"Cooking"},
		Category:       "Food",
		LocationType:   model.LocationVirtual,
		StartDate:      &start,
	}

	result := newTestModel().Score(v, o)

	// 40 + 30 + 20 + 10 + 5 = 105, capped
	assert.Equal(t, MaxScore, result.Value)
	assert.Equal(t, BandExcellent, result.Band)
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	dob := fixedNow.AddDate(-40, 0, 0)
	start := time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC)

	volunteers := []*db.Volunteer{
		{},
		{Skills: []string{"a"}, Interests: []string{"b"}, City: "Leeds", Country: "UK"},
		{Skills: []string{"teaching", "first aid"}, PreferredDays: []string{"weekends"}, DateOfBirth: &dob,
			Experience: []db.Experience{{Title: "teacher", Description: "first aid trainer"}}},
	}
	opportunities := []*db.Opportunity{
		{},
		{RequiredSkills: []string{"first aid"}, Category: "health", LocationType: model.LocationHybrid},
		{RequiredSkills: []string{"x", "y", "z"}, City: "York", Country: "UK", StartDate: &start},
	}

	m := newTestModel()
	for i, v := range volunteers {
		for j, o := range opportunities {
			t.Run(fmt.Sprintf("volunteer %d opportunity %d", i, j), func(t *testing.T) {
				result := m.Score(v, o)
				assert.GreaterOrEqual(t, result.Value, 0)
				assert.LessOrEqual(t, result.Value, MaxScore)
				assert.Equal(t, BandFor(result.Value), result.Band)
				assert.Len(t, result.Factors, 5)
			})
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	v := &db.Volunteer{Skills: []string{"Driving"}, Interests: []string{"Environment"}, City: "Bristol"}
	o := &db.Opportunity{RequiredSkills: []string{"driving licence"}, Category: "environment", City: "bristol"}

	m := newTestModel()
	assert.Equal(t, m.Score(v, o), m.Score(v, o))
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score    int
		expected Band
	}{
		{100, BandExcellent},
		{70, BandExcellent},
		{69, BandGood},
		{50, BandGood},
		{49, BandFair},
		{30, BandFair},
		{29, BandPoor},
		{0, BandPoor},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score %d", tt.score), func(t *testing.T) {
			assert.Equal(t, tt.expected, BandFor(tt.score))
		})
	}
}

func TestNewModel_CustomFactors(t *testing.T) {
	m := NewModel(NewSkillsFactor()).WithClock(func() time.Time { return fixedNow })
	result := m.Score(&db.Volunteer{}, &db.Opportunity{})

	require.Len(t, result.Factors, 1)
	assert.Equal(t, 20, result.Value)
	assert.Equal(t, BandPoor, result.Band)
}
