package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// ViewDeduper remembers recently counted views
type ViewDeduper interface {
	// MarkSeen records key and reports whether it was not already present
	MarkSeen(key string) bool
	Forget(key string)
}

// RecordOpportunityView increments the opportunity's view counter unless the same client was counted
// recently. It reports whether the view was counted.
func RecordOpportunityView(ctx context.Context, store db.OpportunityStore, seen ViewDeduper, logger *zap.Logger, opportunityID, clientKey string) (bool, error) {
	if clientKey == "" {
		return false, model.Validationf("client key is required")
	}

	key := opportunityID + "|" + clientKey
	if !seen.MarkSeen(key) {
		logger.Debug("Skipping repeated view", zap.String("opportunity_id", opportunityID))
		return false, nil
	}

	err := store.IncrementOpportunityViews(ctx, opportunityID)
	if err != nil {
		// Let the next view from this client count
		seen.Forget(key)
		if errors.Is(err, db.ErrNotFound) {
			return false, model.NotFoundf("opportunity %s not found", opportunityID)
		}
		return false, fmt.Errorf("failed to increment views: %w", err)
	}

	logger.Debug("View counted", zap.String("opportunity_id", opportunityID))
	return true, nil
}
