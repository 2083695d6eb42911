package model

import "strings"

type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleCharity   Role = "charity"
	RoleModerator Role = "moderator"
)

func (r Role) IsValid() bool {
	return r == RoleVolunteer || r == RoleCharity || r == RoleModerator
}

// Actor identifies the caller of an operation
type Actor struct {
	UserID string
	Role   Role
}

// ApprovalStatus is the moderation state of a volunteer profile
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// OpportunityStatus is the publishing state of an opportunity
type OpportunityStatus string

const (
	OpportunityDraft      OpportunityStatus = "draft"
	OpportunityPublished  OpportunityStatus = "published"
	OpportunityInProgress OpportunityStatus = "in_progress"
	OpportunityCompleted  OpportunityStatus = "completed"
	OpportunityCancelled  OpportunityStatus = "cancelled"
	OpportunitySuspended  OpportunityStatus = "suspended"

	// opportunityActive is a legacy alias for published
	opportunityActive OpportunityStatus = "active"
)

// NormalizeOpportunityStatus maps legacy values onto the canonical status set
func NormalizeOpportunityStatus(s string) OpportunityStatus {
	status := OpportunityStatus(strings.ToLower(strings.TrimSpace(s)))
	if status == opportunityActive {
		return OpportunityPublished
	}
	return status
}

// LocationType describes where an opportunity takes place
type LocationType string

const (
	LocationInPerson LocationType = "in-person"
	LocationVirtual  LocationType = "virtual"
	LocationHybrid   LocationType = "hybrid"
)

// ApplicationStatus is the lifecycle state of an application
type ApplicationStatus string

const (
	StatusPending                 ApplicationStatus = "pending"
	StatusUnderReview             ApplicationStatus = "under_review"
	StatusApproved                ApplicationStatus = "approved"
	StatusAccepted                ApplicationStatus = "accepted"
	StatusRejected                ApplicationStatus = "rejected"
	StatusWithdrawn               ApplicationStatus = "withdrawn"
	StatusConfirmed               ApplicationStatus = "confirmed"
	StatusAdditionalInfoRequested ApplicationStatus = "additional_info_requested"
	StatusModeratorReview         ApplicationStatus = "moderator_review"
	StatusBackgroundCheckRequired ApplicationStatus = "background_check_required"
)

// AllApplicationStatuses lists every application status in lifecycle order
var AllApplicationStatuses = []ApplicationStatus{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
	StatusConfirmed,
	StatusAdditionalInfoRequested,
	StatusModeratorReview,
	StatusBackgroundCheckRequired,
}

func (s ApplicationStatus) IsValid() bool {
	for _, status := range AllApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the application lifecycle has ended
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusWithdrawn || s == StatusConfirmed
}

// AttendanceStatus records how a volunteer turned up to an opportunity
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Completed reports whether the attendance counts towards completed opportunities
func (s AttendanceStatus) Completed() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// Decision is the outcome of a charity or moderator review
type Decision string

const (
	DecisionAccept   Decision = "accept"
	DecisionDecline  Decision = "decline"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// NotificationKind identifies the event a notification describes
type NotificationKind string

const (
	NotifyApplicationReceived     NotificationKind = "application_received"
	NotifyApplicationStatus       NotificationKind = "application_status_changed"
	NotifyApplicationWithdrawn    NotificationKind = "application_withdrawn"
	NotifyInfoRequested           NotificationKind = "additional_info_requested"
	NotifyInfoProvided            NotificationKind = "additional_info_provided"
	NotifyModeratorReview         NotificationKind = "moderator_review_completed"
	NotifyParticipationConfirmed  NotificationKind = "participation_confirmed"
	NotifySuggestedMatch          NotificationKind = "suggested_match"
	NotifySuggestedMatchAccepted  NotificationKind = "suggested_match_accepted"
	NotifySuggestedMatchDeclined  NotificationKind = "suggested_match_declined"
	NotifyVolunteerProfileDecided NotificationKind = "volunteer_profile_reviewed"
)
