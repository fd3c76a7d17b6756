package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/ikkim/provider-portal-backend/pkg/stripeclient"
	"github.com/ikkim/provider-portal-backend/pkg/util"
	"gorm.io/gorm"
)

const linkSecretBytes = 32

// BusinessInfoInput is the step 1 payload.
type BusinessInfoInput struct {
	BusinessName           string
	BusinessType           model.BusinessType
	ContactEmail           string
	ContactPhone           string
	Website                string
	Description            string
	AddressLine            string
	City                   string
	State                  string
	PostalCode             string
	EligibleCategoryIDs    []string
	EligibleSubcategoryIDs []string
	FirstName              string
	LastName               string
}

// ServiceSelection is one entry of the phase-2 services step.
type ServiceSelection struct {
	ServiceID               uint
	BusinessPrice           float64
	BusinessDurationMinutes int
	DeliveryType            model.DeliveryType
}

// Requirement is one outstanding item blocking final submission.
type Requirement struct {
	Step    string `json:"step"`
	Item    string `json:"item"`
	Message string `json:"message"`
}

// Phase2Status summarises link-gated progress.
type Phase2Status struct {
	BusinessID         uint                     `json:"business_id"`
	BusinessName       string                   `json:"business_name"`
	BusinessType       model.BusinessType       `json:"business_type"`
	SetupStep          int                      `json:"setup_step"`
	SetupCompleted     bool                     `json:"setup_completed"`
	VerificationStatus model.VerificationStatus `json:"verification_status"`
	Steps              map[string]bool          `json:"steps"`
	RequiredDocuments  []model.DocumentType     `json:"required_documents"`
	DocumentTypes      []model.DocumentPolicy   `json:"document_types"`
	Missing            []Requirement            `json:"missing"`
}

// PayoutStatus is the result of confirming the payout account.
type PayoutStatus struct {
	AccountID        string `json:"account_id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
}

// LinkError explains why a phase-2 link was refused. Callers must not show
// Reason to the client; it exists for logs and metrics.
type LinkError struct {
	Reason string
}

func (e *LinkError) Error() string { return "onboarding link rejected: " + e.Reason }

func (e *LinkError) Unwrap() error { return ErrLinkInvalid }

type OnboardingService interface {
	// phase 1
	SaveBusinessInfo(ctx context.Context, userID, email string, input BusinessInfoInput) (*model.BusinessProfile, error)
	StartIdentityVerification(ctx context.Context, userID string, businessID uint) (*stripeclient.IdentitySession, error)
	ConfirmIdentityVerification(ctx context.Context, userID string, businessID uint) (*model.BusinessProfile, error)
	SubmitApplication(ctx context.Context, userID string, businessID uint) (*model.BusinessProfile, error)

	// link tokens
	IssuePhase2Link(ctx context.Context, businessID uint) (string, error)
	ValidateLinkToken(ctx context.Context, raw string) (*model.OnboardingToken, error)

	// phase 2
	Status(ctx context.Context, businessID uint) (*Phase2Status, error)
	SaveServices(ctx context.Context, businessID uint, selections []ServiceSelection) ([]model.BusinessService, error)
	CreatePayoutLink(ctx context.Context, businessID uint) (*stripeclient.AccountLink, error)
	ConfirmPayout(ctx context.Context, businessID uint) (*PayoutStatus, error)
	SaveBusinessHours(ctx context.Context, businessID uint, hours model.BusinessHours) (*model.BusinessProfile, error)
	Submit(ctx context.Context, businessID uint) (*model.BusinessProfile, error)
}

type onboardingService struct {
	cfg          config.OnboardingConfig
	businessRepo repository.BusinessRepository
	providerRepo repository.ProviderRepository
	tokenRepo    repository.OnboardingTokenRepository
	documentRepo repository.DocumentRepository
	catalogRepo  repository.CatalogRepository
	offeringRepo repository.BusinessServiceRepository
	identity     IdentityVerifier
	payouts      PayoutProvider
	events       EventPublisher
	metrics      *metrics.Metrics
	now          func() time.Time
}

// OnboardingDeps groups the collaborators of the onboarding service.
type OnboardingDeps struct {
	Businesses repository.BusinessRepository
	Providers  repository.ProviderRepository
	Tokens     repository.OnboardingTokenRepository
	Documents  repository.DocumentRepository
	Catalog    repository.CatalogRepository
	Offerings  repository.BusinessServiceRepository
	Identity   IdentityVerifier
	Payouts    PayoutProvider
	Events     EventPublisher
	Metrics    *metrics.Metrics
}

func NewOnboardingService(cfg config.OnboardingConfig, deps OnboardingDeps) OnboardingService {
	return &onboardingService{
		cfg:          cfg,
		businessRepo: deps.Businesses,
		providerRepo: deps.Providers,
		tokenRepo:    deps.Tokens,
		documentRepo: deps.Documents,
		catalogRepo:  deps.Catalog,
		offeringRepo: deps.Offerings,
		identity:     deps.Identity,
		payouts:      deps.Payouts,
		events:       publisherOrNoop(deps.Events),
		metrics:      deps.Metrics,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateBusinessInfo(input BusinessInfoInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.BusinessName) == "" {
		fields["business_name"] = "required"
	}
	if input.BusinessType != model.BusinessTypeIndependent && input.BusinessType != model.BusinessTypeBusiness {
		fields["business_type"] = "oneof=independent business"
	}
	if !emailPattern.MatchString(input.ContactEmail) {
		fields["contact_email"] = "email"
	}
	if input.Website != "" {
		if u, err := url.ParseRequestURI(input.Website); err != nil || u.Host == "" {
			fields["website"] = "url"
		}
	}
	if len(fields) > 0 {
		return ErrInvalidInput.WithMessage("Invalid business information").WithDetails(fields)
	}
	return nil
}

// SaveBusinessInfo creates the business and its owner on first call and
// overwrites the step 1 fields on later calls.
func (s *onboardingService) SaveBusinessInfo(ctx context.Context, userID, email string, input BusinessInfoInput) (*model.BusinessProfile, error) {
	if err := validateBusinessInfo(input); err != nil {
		s.metrics.OnboardingStep(model.StepBusinessInfo.String(), "invalid")
		return nil, err
	}

	fields := map[string]interface{}{
		"business_name":            strings.TrimSpace(input.BusinessName),
		"business_type":            input.BusinessType,
		"contact_email":            input.ContactEmail,
		"contact_phone":            input.ContactPhone,
		"website":                  input.Website,
		"description":              input.Description,
		"address_line":             input.AddressLine,
		"city":                     input.City,
		"state":                    input.State,
		"postal_code":              input.PostalCode,
		"eligible_category_ids":    model.StringList(input.EligibleCategoryIDs),
		"eligible_subcategory_ids": model.StringList(input.EligibleSubcategoryIDs),
	}

	provider, err := s.providerRepo.FindActiveByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if provider == nil {
		business := &model.BusinessProfile{
			BusinessName:           strings.TrimSpace(input.BusinessName),
			BusinessType:           input.BusinessType,
			ContactEmail:           input.ContactEmail,
			ContactPhone:           input.ContactPhone,
			Website:                input.Website,
			Description:            input.Description,
			AddressLine:            input.AddressLine,
			City:                   input.City,
			State:                  input.State,
			PostalCode:             input.PostalCode,
			EligibleCategoryIDs:    model.StringList(input.EligibleCategoryIDs),
			EligibleSubcategoryIDs: model.StringList(input.EligibleSubcategoryIDs),
			VerificationStatus:     model.VerificationPending,
			SetupStep:              int(model.StepBusinessInfo),
			IsActive:               true,
		}
		owner := &model.Provider{
			UserID:    userID,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     email,
			IsActive:  true,
		}
		if err := s.businessRepo.CreateWithOwner(ctx, business, owner); err != nil {
			s.metrics.OnboardingStep(model.StepBusinessInfo.String(), "error")
			return nil, err
		}

		logger.Info("Business created from onboarding", map[string]interface{}{
			"business_id": business.ID,
			"user_id":     userID,
		})
		s.metrics.OnboardingStep(model.StepBusinessInfo.String(), "ok")
		return business, nil
	}

	if provider.ProviderRole != model.RoleOwner {
		return nil, ErrAlreadyOnboarding
	}
	return s.saveStep(ctx, provider.BusinessID, model.StepBusinessInfo, fields)
}

// ownedBusiness loads businessID after checking the caller owns it.
func (s *onboardingService) ownedBusiness(ctx context.Context, userID string, businessID uint) (*model.BusinessProfile, error) {
	provider, err := s.providerRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessMismatch
		}
		return nil, err
	}
	if provider.BusinessID != businessID || provider.ProviderRole != model.RoleOwner {
		logger.Warn("Onboarding caller does not own business", map[string]interface{}{
			"user_id":     userID,
			"business_id": businessID,
		})
		return nil, ErrBusinessMismatch
	}
	return s.activeBusiness(ctx, businessID)
}

func (s *onboardingService) activeBusiness(ctx context.Context, businessID uint) (*model.BusinessProfile, error) {
	business, err := s.businessRepo.FindActiveByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return business, nil
}

func (s *onboardingService) saveStep(ctx context.Context, businessID uint, step model.OnboardingStep, fields map[string]interface{}) (*model.BusinessProfile, error) {
	if err := s.businessRepo.SaveStep(ctx, businessID, step, fields); err != nil {
		s.metrics.OnboardingStep(step.String(), "error")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if step != model.StepNone {
		s.metrics.OnboardingStep(step.String(), "ok")
	}
	return s.activeBusiness(ctx, businessID)
}

func (s *onboardingService) StartIdentityVerification(ctx context.Context, userID string, businessID uint) (*stripeclient.IdentitySession, error) {
	business, err := s.ownedBusiness(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if business.IdentityVerificationStatus == model.IdentityVerified {
		return &stripeclient.IdentitySession{ID: business.IdentityVerificationID, Status: string(model.IdentityVerified)}, nil
	}

	session, err := s.identity.CreateIdentitySession(ctx, businessID)
	if err != nil {
		logger.Error("Failed to create identity session", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}

	if _, err := s.saveStep(ctx, businessID, model.StepNone, map[string]interface{}{
		"identity_verification_id":     session.ID,
		"identity_verification_status": identityStatus(session.Status),
	}); err != nil {
		return nil, err
	}
	return session, nil
}

func identityStatus(stripeStatus string) model.IdentityStatus {
	switch stripeStatus {
	case "verified":
		return model.IdentityVerified
	case "processing":
		return model.IdentityProcessing
	case "canceled":
		return model.IdentityCanceled
	default:
		return model.IdentityRequiresInput
	}
}

// ConfirmIdentityVerification pulls the session outcome. Step 2 completes
// only once the provider reports the session verified.
func (s *onboardingService) ConfirmIdentityVerification(ctx context.Context, userID string, businessID uint) (*model.BusinessProfile, error) {
	business, err := s.ownedBusiness(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if business.IdentityVerificationStatus == model.IdentityVerified {
		return business, nil
	}
	if business.IdentityVerificationID == "" {
		return nil, ErrStepLocked.WithMessage("Start identity verification first")
	}

	session, err := s.identity.GetIdentitySession(ctx, business.IdentityVerificationID)
	if err != nil {
		return nil, err
	}

	status := identityStatus(session.Status)
	if status != model.IdentityVerified {
		return s.saveStep(ctx, businessID, model.StepNone, map[string]interface{}{
			"identity_verification_status": status,
		})
	}

	return s.saveStep(ctx, businessID, model.StepIdentityVerification, map[string]interface{}{
		"identity_verification_status": model.IdentityVerified,
		"identity_verified_at":         s.now(),
	})
}

func (s *onboardingService) SubmitApplication(ctx context.Context, userID string, businessID uint) (*model.BusinessProfile, error) {
	business, err := s.ownedBusiness(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if business.IdentityVerificationStatus != model.IdentityVerified {
		s.metrics.OnboardingStep(model.StepApplicationSubmitted.String(), "locked")
		return nil, ErrIdentityUnverified
	}

	updated, err := s.saveStep(ctx, businessID, model.StepApplicationSubmitted, map[string]interface{}{
		"verification_status":      model.VerificationPending,
		"application_submitted_at": s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(websocket.Event{
		Type:       websocket.EventApplicationSubmitted,
		EntityType: "business",
		EntityID:   businessID,
		BusinessID: businessID,
		Actor:      userID,
	})
	return updated, nil
}

// IssuePhase2Link mints a fresh link token for businessID, revoking any
// earlier live token, and returns the full link URL.
func (s *onboardingService) IssuePhase2Link(ctx context.Context, businessID uint) (string, error) {
	secret, err := util.RandomToken(linkSecretBytes)
	if err != nil {
		return "", err
	}
	hash, err := util.HashSecret(secret)
	if err != nil {
		return "", err
	}

	now := s.now()
	token := &model.OnboardingToken{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		SecretHash: hash,
		Purpose:    model.TokenPurposeOnboardingPhase2,
		ExpiresAt:  now.Add(s.cfg.TokenTTL),
		CreatedAt:  now,
	}
	if err := s.tokenRepo.Replace(ctx, token); err != nil {
		return "", err
	}

	logger.Info("Phase 2 onboarding link issued", map[string]interface{}{
		"business_id": businessID,
		"token_id":    token.ID,
		"expires_at":  token.ExpiresAt,
	})
	return buildLink(s.cfg.LinkBaseURL, token.ID+"."+secret), nil
}

func buildLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// ValidateLinkToken resolves "<id>.<secret>". Every failure is a *LinkError
// that unwraps to ErrLinkInvalid.
func (s *onboardingService) ValidateLinkToken(ctx context.Context, raw string) (*model.OnboardingToken, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(raw), ".")
	if !ok || secret == "" {
		return nil, &LinkError{Reason: "malformed"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, &LinkError{Reason: "malformed"}
	}

	token, err := s.tokenRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &LinkError{Reason: "unknown"}
		}
		return nil, err
	}

	now := s.now()
	switch {
	case token.Purpose != model.TokenPurposeOnboardingPhase2:
		return nil, &LinkError{Reason: "purpose"}
	case token.RevokedAt != nil:
		return nil, &LinkError{Reason: "revoked"}
	case !token.Live(now):
		return nil, &LinkError{Reason: "expired"}
	}

	if !util.VerifySecret(token.SecretHash, secret) {
		return nil, &LinkError{Reason: "secret"}
	}

	if _, err := s.businessRepo.FindActiveByID(ctx, token.BusinessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &LinkError{Reason: "business_inactive"}
		}
		return nil, err
	}

	if err := s.tokenRepo.MarkUsed(ctx, token.ID, now); err != nil {
		logger.Warn("Failed to record onboarding token use", map[string]interface{}{
			"token_id": token.ID,
			"error":    err.Error(),
		})
	}
	return token, nil
}

// phase2Business loads a business that may use the link-gated steps.
func (s *onboardingService) phase2Business(ctx context.Context, businessID uint) (*model.BusinessProfile, error) {
	business, err := s.activeBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !business.ApplicationApproved() {
		return nil, ErrStepLocked.WithMessage("Your application has not been approved yet")
	}
	if business.SetupCompleted {
		return nil, ErrAlreadySubmitted
	}
	return business, nil
}

func (s *onboardingService) Status(ctx context.Context, businessID uint) (*Phase2Status, error) {
	business, err := s.activeBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	missing, err := s.requirements(ctx, business)
	if err != nil {
		return nil, err
	}

	steps := map[string]bool{
		model.StepDocuments.String():     true,
		model.StepServices.String():      true,
		model.StepPayout.String():        true,
		model.StepBusinessHours.String(): true,
		model.StepSubmitted.String():     business.SetupCompleted,
	}
	for _, m := range missing {
		if _, ok := steps[m.Step]; ok {
			steps[m.Step] = false
		}
	}

	return &Phase2Status{
		BusinessID:         business.ID,
		BusinessName:       business.BusinessName,
		BusinessType:       business.BusinessType,
		SetupStep:          business.SetupStep,
		SetupCompleted:     business.SetupCompleted,
		VerificationStatus: business.VerificationStatus,
		Steps:              steps,
		RequiredDocuments:  model.RequiredDocumentTypes(business.BusinessType),
		DocumentTypes:      model.FormDocumentTypes(),
		Missing:            missing,
	}, nil
}

// SaveServices replaces the business's service selection. The whole set is
// validated against the catalog before anything is written.
func (s *onboardingService) SaveServices(ctx context.Context, businessID uint, selections []ServiceSelection) ([]model.BusinessService, error) {
	if _, err := s.phase2Business(ctx, businessID); err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, ErrInvalidInput.WithMessage("Select at least one service")
	}

	ids := make([]uint, 0, len(selections))
	seen := make(map[uint]bool, len(selections))
	for _, sel := range selections {
		if seen[sel.ServiceID] {
			return nil, ErrInvalidInput.WithMessage("Service %d is selected more than once", sel.ServiceID)
		}
		seen[sel.ServiceID] = true
		ids = append(ids, sel.ServiceID)
	}

	catalog, err := s.catalogRepo.FindServicesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]model.BusinessService, 0, len(selections))
	for _, sel := range selections {
		svc, ok := catalog[sel.ServiceID]
		if !ok || !svc.IsActive {
			return nil, ErrServiceNotFound.WithMessage("Service %d is not in the catalog", sel.ServiceID)
		}
		if err := validateOffering(svc, sel.BusinessPrice, sel.BusinessDurationMinutes); err != nil {
			s.metrics.OnboardingStep(model.StepServices.String(), "invalid")
			return nil, err
		}
		delivery := sel.DeliveryType
		if delivery == "" {
			delivery = model.DeliveryBusinessLocation
		}
		if !delivery.Valid() {
			return nil, ErrInvalidInput.WithMessage("Invalid delivery type %q", delivery)
		}
		rows = append(rows, model.BusinessService{
			BusinessID:              businessID,
			ServiceID:               sel.ServiceID,
			BusinessPrice:           sel.BusinessPrice,
			BusinessDurationMinutes: sel.BusinessDurationMinutes,
			DeliveryType:            delivery,
			IsActive:                true,
		})
	}

	if err := s.offeringRepo.ReplaceSelection(ctx, businessID, rows); err != nil {
		s.metrics.OnboardingStep(model.StepServices.String(), "error")
		return nil, err
	}
	if _, err := s.saveStep(ctx, businessID, model.StepServices, nil); err != nil {
		return nil, err
	}
	return s.offeringRepo.ListByBusiness(ctx, businessID, false)
}

// CreatePayoutLink creates the connected account on first use and returns a
// hosted onboarding link for it.
func (s *onboardingService) CreatePayoutLink(ctx context.Context, businessID uint) (*stripeclient.AccountLink, error) {
	business, err := s.phase2Business(ctx, businessID)
	if err != nil {
		return nil, err
	}

	accountID := business.StripeAccountID
	if accountID == "" {
		accountID, err = s.payouts.CreateConnectAccount(ctx, business.ContactEmail, businessID)
		if err != nil {
			return nil, err
		}
		if _, err := s.saveStep(ctx, businessID, model.StepNone, map[string]interface{}{
			"stripe_account_id": accountID,
		}); err != nil {
			return nil, err
		}
	}

	return s.payouts.CreateAccountLink(ctx, accountID)
}

func (s *onboardingService) ConfirmPayout(ctx context.Context, businessID uint) (*PayoutStatus, error) {
	business, err := s.phase2Business(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.StripeAccountID == "" {
		return nil, ErrStepLocked.WithMessage("Create a payout link first")
	}

	account, err := s.payouts.GetAccount(ctx, business.StripeAccountID)
	if err != nil {
		return nil, err
	}

	step := model.StepNone
	if account.DetailsSubmitted && account.PayoutsEnabled {
		step = model.StepPayout
	}
	if _, err := s.saveStep(ctx, businessID, step, map[string]interface{}{
		"payouts_enabled": account.PayoutsEnabled,
	}); err != nil {
		return nil, err
	}

	return &PayoutStatus{
		AccountID:        account.ID,
		DetailsSubmitted: account.DetailsSubmitted,
		PayoutsEnabled:   account.PayoutsEnabled,
	}, nil
}

var weekdays = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func validateBusinessHours(hours model.BusinessHours) error {
	if len(hours) == 0 {
		return ErrInvalidInput.WithMessage("Business hours are required")
	}

	seen := make(map[string]bool, len(hours))
	open := 0
	for _, d := range hours {
		day := strings.ToLower(d.Day)
		if _, ok := weekdays[day]; !ok {
			return ErrInvalidInput.WithMessage("Unknown day %q", d.Day)
		}
		if seen[day] {
			return ErrInvalidInput.WithMessage("Day %q is listed more than once", d.Day)
		}
		seen[day] = true
		if d.Closed {
			continue
		}
		if !clockPattern.MatchString(d.OpenTime) || !clockPattern.MatchString(d.CloseTime) {
			return ErrInvalidInput.WithMessage("Hours for %s must be HH:MM", day)
		}
		// zero-padded HH:MM compares correctly as a string
		if d.OpenTime >= d.CloseTime {
			return ErrInvalidInput.WithMessage("Opening time must be before closing time on %s", day)
		}
		open++
	}
	if open == 0 {
		return ErrInvalidInput.WithMessage("At least one day must be open")
	}
	return nil
}

func (s *onboardingService) SaveBusinessHours(ctx context.Context, businessID uint, hours model.BusinessHours) (*model.BusinessProfile, error) {
	if _, err := s.phase2Business(ctx, businessID); err != nil {
		return nil, err
	}
	if err := validateBusinessHours(hours); err != nil {
		s.metrics.OnboardingStep(model.StepBusinessHours.String(), "invalid")
		return nil, err
	}

	normalized := make(model.BusinessHours, len(hours))
	for i, d := range hours {
		d.Day = strings.ToLower(d.Day)
		if d.Closed {
			d.OpenTime, d.CloseTime = "", ""
		}
		normalized[i] = d
	}

	return s.saveStep(ctx, businessID, model.StepBusinessHours, map[string]interface{}{
		"business_hours": normalized,
	})
}

// requirements lists everything still blocking final submission. Status and
// Submit both use it so they never disagree.
func (s *onboardingService) requirements(ctx context.Context, business *model.BusinessProfile) ([]Requirement, error) {
	missing := []Requirement{}

	if business.IdentityVerificationStatus != model.IdentityVerified {
		missing = append(missing, Requirement{
			Step:    model.StepIdentityVerification.String(),
			Item:    "identity",
			Message: "Identity verification is not complete",
		})
	}

	docs, err := s.documentRepo.ListByBusiness(ctx, business.ID)
	if err != nil {
		return nil, err
	}
	present := make(map[model.DocumentType]bool, len(docs))
	for i := range docs {
		if docs[i].Counts() {
			present[docs[i].DocumentType] = true
		}
	}
	for _, t := range model.RequiredDocumentTypes(business.BusinessType) {
		if !present[t] {
			policy, _ := model.PolicyFor(t)
			missing = append(missing, Requirement{
				Step:    model.StepDocuments.String(),
				Item:    string(t),
				Message: policy.Label + " is required",
			})
		}
	}

	offerings, err := s.offeringRepo.ListByBusiness(ctx, business.ID, true)
	if err != nil {
		return nil, err
	}
	if len(offerings) == 0 {
		missing = append(missing, Requirement{
			Step:    model.StepServices.String(),
			Item:    "services",
			Message: "Select at least one service",
		})
	}
	for i := range offerings {
		o := &offerings[i]
		if o.Service == nil {
			continue
		}
		if err := validateOffering(*o.Service, o.BusinessPrice, o.BusinessDurationMinutes); err != nil {
			missing = append(missing, Requirement{
				Step:    model.StepServices.String(),
				Item:    fmt.Sprintf("service:%d", o.ServiceID),
				Message: o.Service.Name + ": " + err.Error(),
			})
		}
	}

	if business.StripeAccountID == "" || !business.PayoutsEnabled {
		missing = append(missing, Requirement{
			Step:    model.StepPayout.String(),
			Item:    "payout_account",
			Message: "Payout account is not set up",
		})
	}

	if validateBusinessHours(business.BusinessHours) != nil {
		missing = append(missing, Requirement{
			Step:    model.StepBusinessHours.String(),
			Item:    "business_hours",
			Message: "Business hours are not configured",
		})
	}

	return missing, nil
}

// Submit runs the aggregate check and hands the business to admin review.
// It never approves.
func (s *onboardingService) Submit(ctx context.Context, businessID uint) (*model.BusinessProfile, error) {
	business, err := s.phase2Business(ctx, businessID)
	if err != nil {
		return nil, err
	}

	missing, err := s.requirements(ctx, business)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.metrics.OnboardingStep(model.StepSubmitted.String(), "incomplete")
		logger.Info("Onboarding submit rejected as incomplete", map[string]interface{}{
			"business_id": businessID,
			"missing":     len(missing),
		})
		return nil, ErrOnboardingIncomplete.WithDetails(map[string]interface{}{"missing": missing})
	}

	now := s.now()
	updated, err := s.saveStep(ctx, businessID, model.StepSubmitted, map[string]interface{}{
		"verification_status":     model.VerificationPending,
		"setup_completed":         true,
		"submitted_for_review_at": now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.RevokeForBusiness(ctx, businessID, now); err != nil {
		logger.Error("Failed to revoke onboarding links after submit", err, map[string]interface{}{
			"business_id": businessID,
		})
	}

	s.events.Publish(websocket.Event{
		Type:       websocket.EventOnboardingSubmitted,
		EntityType: "business",
		EntityID:   businessID,
		BusinessID: businessID,
	})

	logger.Info("Onboarding submitted for review", map[string]interface{}{
		"business_id": businessID,
	})
	return updated, nil
}
