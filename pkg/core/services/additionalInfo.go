package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/core/lifecycle"
	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// RequestInfoParams lists what the charity wants to know from the applicant
type RequestInfoParams struct {
	ApplicationID string   `validate:"required"`
	Fields        []string `validate:"required,min=1,dive,required"`
	Message       string   `validate:"max=2000"`
}

// RequestAdditionalInfo asks the applicant for more information. The volunteer is notified in-app and,
// when an email sender is configured, by email. Email failures are logged only.
func RequestAdditionalInfo(ctx context.Context, store db.LifecycleStore, notifier Notifier, emailer EmailSender, logger *zap.Logger, actor model.Actor, params RequestInfoParams) (*db.Application, error) {
	logger.Debug("Requesting additional information",
		zap.String("application_id", params.ApplicationID),
		zap.Strings("fields", params.Fields))

	if err := validateParams(params); err != nil {
		return nil, err
	}

	ac, err := loadApplicationContext(ctx, store, params.ApplicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{Trigger: lifecycle.TriggerRequestInfo})
	if err != nil {
		return nil, err
	}

	updated := ac.copyApplication()
	updated.InfoRequestedFields = append([]string(nil), params.Fields...)
	updated.InfoRequestMessage = params.Message
	updated.InfoRequestedAt = timePtr(time.Now().UTC())
	updated.InfoResponse = nil
	updated.InfoProvidedAt = nil

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerRequestInfo, updated, outcome); err != nil {
		return nil, err
	}

	payload := applicationPayload(updated, ac.opportunity)
	payload["fields"] = strings.Join(params.Fields, ",")
	payload["message"] = params.Message
	notify(ctx, notifier, logger, ac.volunteer.UserID, model.NotifyInfoRequested, payload)

	subject := fmt.Sprintf("More information needed for %s", ac.opportunity.Title)
	sendEmail(ctx, emailer, logger, ac.volunteer.Email, subject, infoRequestBody(ac, params))

	return updated, nil
}

func infoRequestBody(ac *applicationContext, params RequestInfoParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", ac.volunteer.FirstName)
	fmt.Fprintf(&b, "%s would like some more information about your application to %s:\n\n", ac.charity.Name, ac.opportunity.Title)
	for _, field := range params.Fields {
		fmt.Fprintf(&b, "  - %s\n", field)
	}
	if params.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", params.Message)
	}
	return b.String()
}

// ProvideAdditionalInfo records the volunteer's answers and returns the application to review
func ProvideAdditionalInfo(ctx context.Context, store db.LifecycleStore, notifier Notifier, logger *zap.Logger, actor model.Actor, applicationID string, info map[string]string) (*db.Application, error) {
	logger.Debug("Providing additional information", zap.String("application_id", applicationID))

	if len(info) == 0 {
		return nil, model.Validationf("additional information must not be empty")
	}

	ac, err := loadApplicationContext(ctx, store, applicationID)
	if err != nil {
		return nil, err
	}

	outcome, err := ac.prepare(actor, lifecycle.Request{Trigger: lifecycle.TriggerProvideInfo})
	if err != nil {
		return nil, err
	}

	response := make(map[string]string, len(info))
	for k, v := range info {
		response[k] = v
	}

	updated := ac.copyApplication()
	updated.InfoResponse = response
	updated.InfoProvidedAt = timePtr(time.Now().UTC())

	if err := ac.commit(ctx, store, logger, lifecycle.TriggerProvideInfo, updated, outcome); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(response))
	for k := range response {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := applicationPayload(updated, ac.opportunity)
	payload["volunteer_name"] = ac.volunteer.DisplayName()
	payload["fields"] = strings.Join(keys, ",")
	notify(ctx, notifier, logger, ac.charity.UserID, model.NotifyInfoProvided, payload)

	return updated, nil
}
