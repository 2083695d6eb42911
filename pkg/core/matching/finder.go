package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/core/scoring"
	"github.com/jakechorley/volunteer-match/pkg/db"
	"github.com/jakechorley/volunteer-match/pkg/metrics"
)

const (
	// DefaultPoolSize bounds how many volunteers are scored per search
	DefaultPoolSize = 500
	// DefaultLimit is used when the caller passes a non-positive limit
	DefaultLimit = 10
)

// VolunteerPool is the read-only store the finder needs
type VolunteerPool interface {
	GetOpportunity(ctx context.Context, id string) (*db.Opportunity, error)
	ListVolunteers(ctx context.Context, query db.VolunteerQuery) ([]db.Volunteer, error)
}

// Match is a scored volunteer in a ranked list
type Match struct {
	// Rank is 1-based
	Rank      int
	Volunteer db.Volunteer
	Score     scoring.Result
}

// MatchList is the ranked result of a search
type MatchList struct {
	Opportunity *db.Opportunity
	Matches     []Match
	// PoolSize is the number of volunteers scored
	PoolSize int
}

// Finder ranks approved, active volunteers against an opportunity
type Finder struct {
	store    VolunteerPool
	model    *scoring.Model
	poolSize int
	logger   *zap.Logger
}

// NewFinder creates a finder. A non-positive poolSize uses DefaultPoolSize and a nil model uses the default factors.
func NewFinder(store VolunteerPool, scoreModel *scoring.Model, poolSize int, logger *zap.Logger) *Finder {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if scoreModel == nil {
		scoreModel = scoring.NewModel()
	}
	return &Finder{
		store:    store,
		model:    scoreModel,
		poolSize: poolSize,
		logger:   logger,
	}
}

// FindMatches scores the volunteer pool against the opportunity, keeps scores >= minScore,
// sorts by score descending (ties keep pool order) and returns at most limit matches.
// It never writes.
func (f *Finder) FindMatches(ctx context.Context, opportunityID string, limit, minScore int) (*MatchList, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	minScore = max(0, min(minScore, scoring.MaxScore))

	f.logger.Debug("Finding matches",
		zap.String("opportunity_id", opportunityID),
		zap.Int("limit", limit),
		zap.Int("min_score", minScore))

	opportunity, err := f.store.GetOpportunity(ctx, opportunityID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, model.NotFoundf("opportunity %s not found", opportunityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch opportunity: %w", err)
	}

	pool, err := f.store.ListVolunteers(ctx, db.VolunteerQuery{
		ApprovalStatus: model.ApprovalApproved,
		ActiveOnly:     true,
		Limit:          f.poolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteer pool: %w", err)
	}

	matches := make([]Match, 0, len(pool))
	for _, v := range pool {
		result := f.model.Score(&v, opportunity)
		if result.Value < minScore {
			continue
		}
		matches = append(matches, Match{Volunteer: v, Score: result})
	}
	metrics.RecordCandidatesScored(len(pool))

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score.Value > matches[j].Score.Value
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}

	f.logger.Debug("Matches found",
		zap.String("opportunity_id", opportunityID),
		zap.Int("pool_size", len(pool)),
		zap.Int("matches", len(matches)))

	return &MatchList{
		Opportunity: opportunity,
		Matches:     matches,
		PoolSize:    len(pool),
	}, nil
}
