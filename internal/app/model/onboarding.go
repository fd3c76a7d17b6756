package model

import (
	"time"
)

// OnboardingStep values are persisted in BusinessProfile.SetupStep.
type OnboardingStep int

const (
	StepNone                 OnboardingStep = 0
	StepBusinessInfo         OnboardingStep = 1
	StepIdentityVerification OnboardingStep = 2
	StepApplicationSubmitted OnboardingStep = 3
	StepDocuments            OnboardingStep = 4
	StepServices             OnboardingStep = 5
	StepPayout               OnboardingStep = 6
	StepBusinessHours        OnboardingStep = 7
	StepSubmitted            OnboardingStep = 8
)

var stepNames = map[OnboardingStep]string{
	StepBusinessInfo:         "business_info",
	StepIdentityVerification: "identity_verification",
	StepApplicationSubmitted: "application_submitted",
	StepDocuments:            "documents",
	StepServices:             "services",
	StepPayout:               "payout",
	StepBusinessHours:        "business_hours",
	StepSubmitted:            "submitted",
}

func (s OnboardingStep) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "none"
}

// Phase is 1 for the public steps and 2 for the link-gated steps.
func (s OnboardingStep) Phase() int {
	if s >= StepDocuments {
		return 2
	}
	return 1
}

const TokenPurposeOnboardingPhase2 = "onboarding_phase2"

// OnboardingToken backs a phase-2 link. The link carries "<ID>.<secret>"; only
// the bcrypt hash of the secret is stored.
type OnboardingToken struct {
	ID         string     `gorm:"type:varchar(36);primarykey" json:"id"`
	BusinessID uint       `gorm:"not null;index" json:"business_id"`
	SecretHash string     `gorm:"not null" json:"-"`
	Purpose    string     `gorm:"type:varchar(40);not null" json:"purpose"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (OnboardingToken) TableName() string {
	return "onboarding_tokens"
}

// Live reports whether the token may still open the phase-2 gate.
func (t *OnboardingToken) Live(now time.Time) bool {
	return t.Purpose == TokenPurposeOnboardingPhase2 && t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
