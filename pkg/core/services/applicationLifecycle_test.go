package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/internal/testfixtures"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

func confirmedCount(t *testing.T, s *testfixtures.Scenario) int {
	t.Helper()
	o, err := s.Store.GetOpportunity(context.Background(), s.Opportunity.ID)
	require.NoError(t, err)
	return o.ConfirmedCount
}

func storedStatus(t *testing.T, s *testfixtures.Scenario, id string) model.ApplicationStatus {
	t.Helper()
	app, err := s.Store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	return app.Status
}

func TestUpdateApplicationStatus_Approve(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusUnderReview)
	notifier := &mockNotifier{}

	app, err := UpdateApplicationStatus(context.Background(), s.Store, notifier, zap.NewNop(), s.CharityActor,
		"app-1", model.StatusApproved, "great fit")
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, app.Status)
	assert.Equal(t, "great fit", app.ReviewNotes)
	assert.Equal(t, "user-charity", app.ReviewedBy)
	assert.NotNil(t, app.ReviewedAt)
	assert.Equal(t, model.StatusApproved, storedStatus(t, s, "app-1"))
	assert.Equal(t, 0, confirmedCount(t, s))

	sent := notifier.to("user-vol")
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotifyApplicationStatus, sent[0].Kind)
	assert.Equal(t, string(model.StatusApproved), sent[0].Payload["status"])
}

func TestUpdateApplicationStatus_ConfirmIncrementsCount(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusApproved)

	app, err := UpdateApplicationStatus(context.Background(), s.Store, nil, zap.NewNop(), s.CharityActor,
		"app-1", model.StatusConfirmed, "")
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, app.Status)
	assert.NotNil(t, app.ConfirmedAt)
	assert.Equal(t, 1, confirmedCount(t, s))
}

func TestUpdateApplicationStatus_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		current      model.ApplicationStatus
		actor        model.Actor
		target       model.ApplicationStatus
		notes        string
		suspended    bool
		expectedKind model.ErrorKind
	}{
		{"other charity", model.StatusPending, model.Actor{UserID: "someone-else", Role: model.RoleCharity}, model.StatusApproved, "", false, model.KindForbidden},
		{"volunteer", model.StatusPending, model.Actor{UserID: "user-vol", Role: model.RoleVolunteer}, model.StatusApproved, "", false, model.KindForbidden},
		{"rejection without reason", model.StatusPending, model.Actor{UserID: "user-charity", Role: model.RoleCharity}, model.StatusRejected, "", false, model.KindValidation},
		{"terminal status", model.StatusRejected, model.Actor{UserID: "user-charity", Role: model.RoleCharity}, model.StatusApproved, "", false, model.KindConflict},
		{"suspended opportunity", model.StatusUnderReview, model.Actor{UserID: "user-charity", Role: model.RoleCharity}, model.StatusApproved, "", true, model.KindConflict},
		{"flagged for moderator", model.StatusModeratorReview, model.Actor{UserID: "user-charity", Role: model.RoleCharity}, model.StatusApproved, "", false, model.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testfixtures.NewScenario()
			if tt.suspended {
				o := s.Opportunity
				o.Status = model.OpportunitySuspended
				s.Store.AddOpportunity(o)
			}
			before := s.WithApplication("app-1", tt.current)

			_, err := UpdateApplicationStatus(context.Background(), s.Store, nil, zap.NewNop(), tt.actor,
				"app-1", tt.target, tt.notes)
			require.Error(t, err)
			assert.Equal(t, tt.expectedKind, model.KindOf(err))

			after, err := s.Store.GetApplication(context.Background(), "app-1")
			require.NoError(t, err)
			assert.Equal(t, before, *after)
		})
	}
}

func TestUpdateApplicationStatus_ModeratorOnSuspendedOpportunity(t *testing.T) {
	s := testfixtures.NewScenario()
	o := s.Opportunity
	o.Status = model.OpportunitySuspended
	s.Store.AddOpportunity(o)
	s.WithApplication("app-1", model.StatusApproved)

	app, err := UpdateApplicationStatus(context.Background(), s.Store, nil, zap.NewNop(), s.ModeratorActor,
		"app-1", model.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, app.Status)
	assert.Equal(t, 1, confirmedCount(t, s))
}

func TestUpdateApplicationStatus_NotFound(t *testing.T) {
	s := testfixtures.NewScenario()

	_, err := UpdateApplicationStatus(context.Background(), s.Store, nil, zap.NewNop(), s.CharityActor,
		"missing", model.StatusApproved, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWithdrawApplication(t *testing.T) {
	for _, status := range []model.ApplicationStatus{
		model.StatusPending,
		model.StatusUnderReview,
		model.StatusApproved,
		model.StatusAdditionalInfoRequested,
		model.StatusModeratorReview,
	} {
		t.Run(string(status), func(t *testing.T) {
			s := testfixtures.NewScenario()
			s.WithApplication("app-1", status)
			notifier := &mockNotifier{}

			app, err := WithdrawApplication(context.Background(), s.Store, notifier, zap.NewNop(), s.VolunteerActor,
				"app-1", "moving away")
			require.NoError(t, err)

			assert.Equal(t, model.StatusWithdrawn, app.Status)
			assert.Equal(t, "moving away", app.WithdrawalReason)
			assert.NotNil(t, app.WithdrawnAt)
			assert.Equal(t, model.StatusWithdrawn, storedStatus(t, s, "app-1"))
			assert.Len(t, notifier.to("user-charity"), 1)
		})
	}
}

func TestWithdrawApplication_ConfirmedReleasesPlace(t *testing.T) {
	s := testfixtures.NewScenario()
	o := s.Opportunity
	o.ConfirmedCount = 3
	s.Store.AddOpportunity(o)
	s.WithApplication("app-1", model.StatusConfirmed)

	_, err := WithdrawApplication(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor, "app-1", "ill")
	require.NoError(t, err)
	assert.Equal(t, 2, confirmedCount(t, s))
}

func TestWithdrawApplication_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		current      model.ApplicationStatus
		actor        model.Actor
		expectedKind model.ErrorKind
	}{
		{"already withdrawn", model.StatusWithdrawn, model.Actor{UserID: "user-vol", Role: model.RoleVolunteer}, model.KindConflict},
		{"rejected", model.StatusRejected, model.Actor{UserID: "user-vol", Role: model.RoleVolunteer}, model.KindConflict},
		{"another volunteer", model.StatusPending, model.Actor{UserID: "user-other", Role: model.RoleVolunteer}, model.KindForbidden},
		{"charity", model.StatusPending, model.Actor{UserID: "user-charity", Role: model.RoleCharity}, model.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testfixtures.NewScenario()
			s.WithApplication("app-1", tt.current)

			_, err := WithdrawApplication(context.Background(), s.Store, nil, zap.NewNop(), tt.actor, "app-1", "")
			require.Error(t, err)
			assert.Equal(t, tt.expectedKind, model.KindOf(err))
			assert.Equal(t, tt.current, storedStatus(t, s, "app-1"))
		})
	}
}

func TestRequestAdditionalInfo(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusUnderReview)
	notifier := &mockNotifier{}
	emailer := &mockEmailSender{}

	app, err := RequestAdditionalInfo(context.Background(), s.Store, notifier, emailer, zap.NewNop(), s.CharityActor,
		RequestInfoParams{ApplicationID: "app-1", Fields: []string{"dbs", "references"}, Message: "Please send these"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusAdditionalInfoRequested, app.Status)
	assert.Equal(t, []string{"dbs", "references"}, app.InfoRequestedFields)
	assert.Equal(t, "Please send these", app.InfoRequestMessage)
	assert.NotNil(t, app.InfoRequestedAt)

	sent := notifier.to("user-vol")
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotifyInfoRequested, sent[0].Kind)
	assert.Equal(t, "dbs,references", sent[0].Payload["fields"])

	require.Len(t, emailer.sent, 1)
	assert.Equal(t, "vol-1@volunteer.example", emailer.sent[0].To)
	assert.Contains(t, emailer.sent[0].Subject, "Homework club")
	assert.Contains(t, emailer.sent[0].Body, "  - dbs\n")
}

func TestRequestAdditionalInfo_EmailFailureIgnored(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusPending)
	emailer := &mockEmailSender{err: errors.New("quota exceeded")}

	app, err := RequestAdditionalInfo(context.Background(), s.Store, nil, emailer, zap.NewNop(), s.CharityActor,
		RequestInfoParams{ApplicationID: "app-1", Fields: []string{"dbs"}})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdditionalInfoRequested, app.Status)
	assert.Len(t, emailer.sent, 1)
}

func TestRequestAdditionalInfo_RequiresFields(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusPending)

	_, err := RequestAdditionalInfo(context.Background(), s.Store, nil, nil, zap.NewNop(), s.CharityActor,
		RequestInfoParams{ApplicationID: "app-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)

	var merr *model.Error
	require.True(t, errors.As(err, &merr))
	assert.Contains(t, merr.Fields, "fields")
	assert.Equal(t, model.StatusPending, storedStatus(t, s, "app-1"))
}

func TestProvideAdditionalInfo(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusAdditionalInfoRequested)
	notifier := &mockNotifier{}

	app, err := ProvideAdditionalInfo(context.Background(), s.Store, notifier, zap.NewNop(), s.VolunteerActor,
		"app-1", map[string]string{"references": "Ms Smith", "dbs": "123"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusUnderReview, app.Status)
	assert.Equal(t, "Ms Smith", app.InfoResponse["references"])
	assert.NotNil(t, app.InfoProvidedAt)

	sent := notifier.to("user-charity")
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotifyInfoProvided, sent[0].Kind)
	assert.Equal(t, "dbs,references", sent[0].Payload["fields"])
}

func TestProvideAdditionalInfo_ResultDoesNotAliasStoredRow(t *testing.T) {
	s := testfixtures.NewScenario()
	seeded := s.WithApplication("app-1", model.StatusAdditionalInfoRequested)
	seeded.InfoRequestedFields = []string{"dbs"}
	s.Store.AddApplication(seeded)

	app, err := ProvideAdditionalInfo(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor,
		"app-1", map[string]string{"dbs": "123"})
	require.NoError(t, err)

	app.InfoResponse["dbs"] = "changed"
	app.InfoRequestedFields[0] = "changed"

	stored, err := s.Store.GetApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dbs": "123"}, stored.InfoResponse)
	assert.Equal(t, []string{"dbs"}, stored.InfoRequestedFields)
}

// staleUpdateStore fails every application write as if another transition won the race
type staleUpdateStore struct {
	*testfixtures.Store
}

func (s *staleUpdateStore) UpdateApplication(ctx context.Context, update db.ApplicationUpdate) error {
	update.Application.InfoRequestedFields[0] = "mutated by caller"
	return db.ErrStaleStatus
}

func TestProvideAdditionalInfo_FailedWriteLeavesStoredRowUntouched(t *testing.T) {
	s := testfixtures.NewScenario()
	seeded := s.WithApplication("app-1", model.StatusAdditionalInfoRequested)
	seeded.InfoRequestedFields = []string{"dbs"}
	s.Store.AddApplication(seeded)

	_, err := ProvideAdditionalInfo(context.Background(), &staleUpdateStore{Store: s.Store}, nil, zap.NewNop(),
		s.VolunteerActor, "app-1", map[string]string{"dbs": "123"})
	assert.ErrorIs(t, err, model.ErrConflict)

	stored, err := s.Store.GetApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdditionalInfoRequested, stored.Status)
	assert.Equal(t, []string{"dbs"}, stored.InfoRequestedFields)
	assert.Nil(t, stored.InfoResponse)
}

func TestProvideAdditionalInfo_Rejections(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusUnderReview)

	_, err := ProvideAdditionalInfo(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor,
		"app-1", map[string]string{"dbs": "123"})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = ProvideAdditionalInfo(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor, "app-1", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCompleteVetting(t *testing.T) {
	tests := []struct {
		name     string
		flag     bool
		bgCheck  bool
		expected model.ApplicationStatus
	}{
		{"clean", false, false, model.StatusUnderReview},
		{"background check", false, true, model.StatusBackgroundCheckRequired},
		{"flagged", true, false, model.StatusModeratorReview},
		{"flag wins over background check", true, true, model.StatusModeratorReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testfixtures.NewScenario()
			s.WithApplication("app-1", model.StatusPending)

			app, err := CompleteVetting(context.Background(), s.Store, zap.NewNop(), s.CharityActor, VettingParams{
				ApplicationID:           "app-1",
				Score:                   7,
				Notes:                   "checked",
				FlagForModeration:       tt.flag,
				RequiresBackgroundCheck: tt.bgCheck,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, app.Status)
			require.NotNil(t, app.VettingScore)
			assert.Equal(t, 7, *app.VettingScore)
			assert.Equal(t, "checked", app.VettingNotes)
			assert.Equal(t, tt.flag, app.FlaggedForModeration)
		})
	}
}

func TestCompleteVetting_ScoreRange(t *testing.T) {
	for _, score := range []int{0, 11} {
		s := testfixtures.NewScenario()
		s.WithApplication("app-1", model.StatusPending)

		_, err := CompleteVetting(context.Background(), s.Store, zap.NewNop(), s.CharityActor,
			VettingParams{ApplicationID: "app-1", Score: score})
		assert.ErrorIs(t, err, model.ErrValidation, "score %d", score)
		assert.Equal(t, model.StatusPending, storedStatus(t, s, "app-1"))
	}
}

func TestModeratorReview(t *testing.T) {
	tests := []struct {
		name     string
		decision model.Decision
		notes    string
		override model.ApplicationStatus
		expected model.ApplicationStatus
	}{
		{"approved returns to review", model.DecisionApproved, "", "", model.StatusUnderReview},
		{"rejected", model.DecisionRejected, "unsafe", "", model.StatusRejected},
		{"override", model.DecisionApproved, "", model.StatusApproved, model.StatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testfixtures.NewScenario()
			app := testfixtures.Application("app-1", "opp-1", "vol-1", model.StatusModeratorReview)
			app.FlaggedForModeration = true
			s.Store.AddApplication(app)
			notifier := &mockNotifier{}

			updated, err := ModeratorReview(context.Background(), s.Store, notifier, zap.NewNop(), s.ModeratorActor,
				ModeratorReviewParams{ApplicationID: "app-1", Decision: tt.decision, Notes: tt.notes, Override: tt.override})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, updated.Status)
			assert.False(t, updated.FlaggedForModeration)
			assert.Equal(t, string(tt.decision), updated.ModeratorDecision)
			assert.Equal(t, "user-mod", updated.ModeratedBy)
			assert.NotNil(t, updated.ModeratedAt)

			assert.Len(t, notifier.to("user-charity"), 1)
			assert.Len(t, notifier.to("user-vol"), 1)
		})
	}
}

func TestModeratorReview_Rejections(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusModeratorReview)

	_, err := ModeratorReview(context.Background(), s.Store, nil, zap.NewNop(), s.CharityActor,
		ModeratorReviewParams{ApplicationID: "app-1", Decision: model.DecisionApproved})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = ModeratorReview(context.Background(), s.Store, nil, zap.NewNop(), s.ModeratorActor,
		ModeratorReviewParams{ApplicationID: "app-1", Decision: "escalate"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = ModeratorReview(context.Background(), s.Store, nil, zap.NewNop(), s.ModeratorActor,
		ModeratorReviewParams{ApplicationID: "app-1", Decision: model.DecisionRejected})
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.Equal(t, model.StatusModeratorReview, storedStatus(t, s, "app-1"))
}

func TestConfirmParticipation(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusApproved)
	notifier := &mockNotifier{}

	app, err := ConfirmParticipation(context.Background(), s.Store, notifier, zap.NewNop(), s.VolunteerActor, "app-1", intPtr(12))
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, app.Status)
	require.NotNil(t, app.CommittedHours)
	assert.Equal(t, 12, *app.CommittedHours)
	assert.NotNil(t, app.ConfirmedAt)
	assert.Equal(t, 1, confirmedCount(t, s))

	sent := notifier.to("user-charity")
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotifyParticipationConfirmed, sent[0].Kind)
	assert.Equal(t, "12", sent[0].Payload["committed_hours"])
}

func TestConfirmParticipation_HoursValidation(t *testing.T) {
	tests := []struct {
		name  string
		hours *int
	}{
		{"zero", intPtr(0)},
		{"over a week", intPtr(169)},
		{"absent", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testfixtures.NewScenario()
			s.WithApplication("app-1", model.StatusApproved)

			_, err := ConfirmParticipation(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor, "app-1", tt.hours)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Equal(t, model.StatusApproved, storedStatus(t, s, "app-1"))
			assert.Equal(t, 0, confirmedCount(t, s))
		})
	}
}

func TestConfirmParticipation_BoundaryHours(t *testing.T) {
	for _, hours := range []int{1, 168} {
		s := testfixtures.NewScenario()
		s.WithApplication("app-1", model.StatusApproved)

		_, err := ConfirmParticipation(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor, "app-1", intPtr(hours))
		assert.NoError(t, err, "hours %d", hours)
	}
}

func TestConfirmParticipation_OnlyFromApproved(t *testing.T) {
	for _, status := range model.AllApplicationStatuses {
		if status == model.StatusApproved {
			continue
		}
		t.Run(string(status), func(t *testing.T) {
			s := testfixtures.NewScenario()
			s.WithApplication("app-1", status)

			_, err := ConfirmParticipation(context.Background(), s.Store, nil, zap.NewNop(), s.VolunteerActor, "app-1", intPtr(4))
			assert.ErrorIs(t, err, model.ErrConflict)
			assert.Equal(t, status, storedStatus(t, s, "app-1"))
		})
	}
}

func TestConfirmParticipation_ConcurrentConfirmations(t *testing.T) {
	s := testfixtures.NewScenario()
	s.Store.AddVolunteer(testfixtures.ApprovedVolunteer("vol-2", "user-vol-2"))
	s.Store.AddApplication(testfixtures.Application("app-1", "opp-1", "vol-1", model.StatusApproved))
	s.Store.AddApplication(testfixtures.Application("app-2", "opp-1", "vol-2", model.StatusApproved))

	actors := map[string]model.Actor{
		"app-1": s.VolunteerActor,
		"app-2": {UserID: "user-vol-2", Role: model.RoleVolunteer},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(actors))
	for appID, actor := range actors {
		wg.Add(1)
		go func(appID string, actor model.Actor) {
			defer wg.Done()
			_, err := ConfirmParticipation(context.Background(), s.Store, nil, zap.NewNop(), actor, appID, intPtr(3))
			errs <- err
		}(appID, actor)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 2, confirmedCount(t, s))
}

// staleStore serves an outdated status on read, as if another request changed the application in between
type staleStore struct {
	*testfixtures.Store
	staleStatus model.ApplicationStatus
}

func (s *staleStore) GetApplication(ctx context.Context, id string) (*db.Application, error) {
	app, err := s.Store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Status = s.staleStatus
	return app, nil
}

func TestConfirmParticipation_ConcurrentTransitionConflicts(t *testing.T) {
	s := testfixtures.NewScenario()
	s.WithApplication("app-1", model.StatusWithdrawn)
	store := &staleStore{Store: s.Store, staleStatus: model.StatusApproved}

	_, err := ConfirmParticipation(context.Background(), store, nil, zap.NewNop(), s.VolunteerActor, "app-1", intPtr(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, model.StatusWithdrawn, storedStatus(t, s, "app-1"))
	assert.Equal(t, 0, confirmedCount(t, s))
}
