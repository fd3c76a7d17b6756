package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/ikkim/provider-portal-backend/pkg/mailer"
	"gorm.io/gorm"
)

type BusinessAction string

const (
	BusinessApprove    BusinessAction = "approve"
	BusinessReject     BusinessAction = "reject"
	BusinessSuspend    BusinessAction = "suspend"
	BusinessReactivate BusinessAction = "reactivate"
)

var businessActionStatus = map[BusinessAction]model.VerificationStatus{
	BusinessApprove:    model.VerificationApproved,
	BusinessReject:     model.VerificationRejected,
	BusinessSuspend:    model.VerificationSuspended,
	BusinessReactivate: model.VerificationApproved,
}

type ReviewAction string

const (
	ReviewApprove   ReviewAction = "approve"
	ReviewReject    ReviewAction = "reject"
	ReviewFeature   ReviewAction = "feature"
	ReviewUnfeature ReviewAction = "unfeature"
)

// ModerationInput is shared by every moderation call. Version, when set,
// must match the row for the change to apply.
type ModerationInput struct {
	AdminID string
	Notes   string
	Version *int
}

// LinkIssuer mints phase-2 onboarding links. OnboardingService satisfies it.
type LinkIssuer interface {
	IssuePhase2Link(ctx context.Context, businessID uint) (string, error)
}

type ModerationService interface {
	ListBusinesses(ctx context.Context, filter repository.BusinessFilter) ([]model.BusinessProfile, int64, error)
	ModerateBusiness(ctx context.Context, id uint, action BusinessAction, input ModerationInput) (*model.BusinessProfile, error)
	ApproveApplication(ctx context.Context, id uint, input ModerationInput) (*model.BusinessProfile, error)

	ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]model.Review, int64, error)
	ModerateReview(ctx context.Context, id uint, action ReviewAction, input ModerationInput) (*model.Review, error)
}

type moderationService struct {
	businessRepo repository.BusinessRepository
	reviewRepo   repository.ReviewRepository
	links        LinkIssuer
	mailer       Mailer
	events       EventPublisher
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewModerationService(
	businessRepo repository.BusinessRepository,
	reviewRepo repository.ReviewRepository,
	links LinkIssuer,
	notifier Mailer,
	events EventPublisher,
	m *metrics.Metrics,
) ModerationService {
	return &moderationService{
		businessRepo: businessRepo,
		reviewRepo:   reviewRepo,
		links:        links,
		mailer:       notifier,
		events:       publisherOrNoop(events),
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// auditFields is the stamp written in the same statement as every change.
func (s *moderationService) auditFields(input ModerationInput) map[string]interface{} {
	return map[string]interface{}{
		"moderated_by":     input.AdminID,
		"moderated_at":     s.now(),
		"moderation_notes": strings.TrimSpace(input.Notes),
	}
}

func (s *moderationService) ListBusinesses(ctx context.Context, filter repository.BusinessFilter) ([]model.BusinessProfile, int64, error) {
	return s.businessRepo.List(ctx, filter)
}

// ModerateBusiness sets the verification status. Approve and reject may be
// applied in either order any number of times.
func (s *moderationService) ModerateBusiness(ctx context.Context, id uint, action BusinessAction, input ModerationInput) (*model.BusinessProfile, error) {
	status, ok := businessActionStatus[action]
	if !ok {
		return nil, ErrInvalidInput.WithMessage("Unknown business action %q", action)
	}

	fields := s.auditFields(input)
	fields["verification_status"] = status

	if err := s.applyBusiness(ctx, id, input.Version, fields); err != nil {
		return nil, err
	}
	return s.finishBusiness(ctx, id, "business", string(action), websocket.EventBusinessModerated, input.AdminID)
}

// ApproveApplication unlocks phase 2 and emails the owner a link. Approving
// again issues a new link and revokes the old one.
func (s *moderationService) ApproveApplication(ctx context.Context, id uint, input ModerationInput) (*model.BusinessProfile, error) {
	business, err := s.businessRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if business.ApplicationSubmittedAt == nil {
		return nil, ErrStepLocked.WithMessage("The application has not been submitted")
	}
	if !business.IsActive {
		return nil, ErrBusinessNotFound
	}

	fields := s.auditFields(input)
	fields["application_approved_at"] = s.now()
	if err := s.applyBusiness(ctx, id, input.Version, fields); err != nil {
		return nil, err
	}

	link, err := s.links.IssuePhase2Link(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, mailer.Phase2LinkMessage(business.ContactEmail, business.BusinessName, link)); err != nil {
		logger.Error("Failed to email phase 2 link", err, map[string]interface{}{
			"business_id": id,
		})
		return nil, ErrEmailFailed.WithMessage("Application approved but the onboarding email could not be sent; approve again to resend").Wrap(err)
	}

	return s.finishBusiness(ctx, id, "application", "approve", websocket.EventApplicationApproved, input.AdminID)
}

func (s *moderationService) applyBusiness(ctx context.Context, id uint, version *int, fields map[string]interface{}) error {
	rows, err := s.businessRepo.Moderate(ctx, id, version, fields)
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.businessRepo.FindByID(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBusinessNotFound
		}
		return ErrVersionStale
	}
	return nil
}

func (s *moderationService) finishBusiness(ctx context.Context, id uint, entity, action, eventType, adminID string) (*model.BusinessProfile, error) {
	business, err := s.businessRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Moderation(entity, action)
	s.events.Publish(websocket.Event{
		Type:       eventType,
		EntityType: entity,
		EntityID:   id,
		BusinessID: id,
		Actor:      adminID,
		Data: map[string]interface{}{
			"action":              action,
			"verification_status": business.VerificationStatus,
			"version":             business.Version,
		},
	})
	logger.Info("Business moderated", map[string]interface{}{
		"business_id": id,
		"entity":      entity,
		"action":      action,
		"admin_id":    adminID,
	})
	return business, nil
}

func (s *moderationService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]model.Review, int64, error) {
	return s.reviewRepo.List(ctx, filter)
}

func (s *moderationService) ModerateReview(ctx context.Context, id uint, action ReviewAction, input ModerationInput) (*model.Review, error) {
	fields := s.auditFields(input)

	var (
		rows int64
		err  error
	)
	switch action {
	case ReviewApprove:
		fields["is_approved"] = true
		rows, err = s.reviewRepo.Moderate(ctx, id, input.Version, fields)
	case ReviewReject:
		// an unapproved review cannot stay featured
		fields["is_approved"] = false
		fields["is_featured"] = false
		rows, err = s.reviewRepo.Moderate(ctx, id, input.Version, fields)
	case ReviewFeature:
		review, findErr := s.findReview(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if !review.Featureable() {
			return nil, ErrReviewNotFeatureable
		}
		fields["is_featured"] = true
		rows, err = s.reviewRepo.Feature(ctx, id, input.Version, fields)
	case ReviewUnfeature:
		fields["is_featured"] = false
		rows, err = s.reviewRepo.Moderate(ctx, id, input.Version, fields)
	default:
		return nil, ErrInvalidInput.WithMessage("Unknown review action %q", action)
	}
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		current, findErr := s.findReview(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		// lost a race with an unapprove between the check and the write
		if action == ReviewFeature && !current.Featureable() {
			return nil, ErrReviewNotFeatureable
		}
		return nil, ErrVersionStale
	}

	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Moderation("review", string(action))
	s.events.Publish(websocket.Event{
		Type:       websocket.EventReviewModerated,
		EntityType: "review",
		EntityID:   id,
		BusinessID: review.BusinessID,
		Actor:      input.AdminID,
		Data: map[string]interface{}{
			"action":      action,
			"is_approved": review.IsApproved,
			"is_featured": review.IsFeatured,
			"version":     review.Version,
		},
	})
	logger.Info("Review moderated", map[string]interface{}{
		"review_id": id,
		"action":    action,
		"admin_id":  input.AdminID,
	})
	return review, nil
}

func (s *moderationService) findReview(ctx context.Context, id uint) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}
