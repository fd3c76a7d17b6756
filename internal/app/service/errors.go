package service

import (
	"net/http"

	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
)

// Service-level errors. Each already carries its HTTP presentation, so
// controllers hand them straight to errors.Respond.
var (
	ErrBusinessNotFound = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Business not found")
	ErrProviderNotFound = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Staff member not found")
	ErrDocumentNotFound = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Document not found")
	ErrServiceNotFound  = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Service not found")
	ErrAddonNotFound    = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Addon not found")
	ErrBookingNotFound  = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Booking not found")
	ErrReviewNotFound   = apperrors.New(http.StatusNotFound, apperrors.ResourceNotFound, "Review not found")

	ErrVersionStale     = apperrors.New(http.StatusConflict, apperrors.ResourceVersionStale, "The record was changed by someone else; reload and try again")
	ErrInvalidInput     = apperrors.New(http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid input")
	ErrBusinessMismatch = apperrors.New(http.StatusForbidden, apperrors.AuthzBusinessMismatch, "You do not have access to this business")
	ErrOwnerOnly        = apperrors.New(http.StatusForbidden, apperrors.AuthzRoleNotAllowed, "Only the business owner can do this")

	// onboarding
	ErrLinkInvalid          = apperrors.New(http.StatusUnauthorized, apperrors.OnboardingLinkInvalid, "Invalid or expired link")
	ErrStepLocked           = apperrors.New(http.StatusConflict, apperrors.OnboardingStepLocked, "This onboarding step is not available yet")
	ErrIdentityUnverified   = apperrors.New(http.StatusConflict, apperrors.OnboardingIdentityUnverified, "Identity verification has not been completed")
	ErrOnboardingIncomplete = apperrors.New(http.StatusBadRequest, apperrors.OnboardingIncomplete, "Onboarding is incomplete")
	ErrAlreadySubmitted     = apperrors.New(http.StatusConflict, apperrors.OnboardingAlreadySubmitted, "Onboarding was already submitted for review")
	ErrAlreadyOnboarding    = apperrors.New(http.StatusConflict, apperrors.ResourceAlreadyExists, "You already belong to a business")

	// documents
	ErrDocumentInvalidType   = apperrors.New(http.StatusBadRequest, apperrors.DocumentInvalidType, "Unknown document type")
	ErrDocumentNotUploadable = apperrors.New(http.StatusBadRequest, apperrors.DocumentTypeNotUploadable, "This document type is verified through identity verification and cannot be uploaded")
	ErrDocumentExtension     = apperrors.New(http.StatusBadRequest, apperrors.DocumentInvalidExtension, "File must be a PDF, JPG or PNG")
	ErrDocumentContent       = apperrors.New(http.StatusBadRequest, apperrors.DocumentContentMismatch, "File content is not a PDF, JPG or PNG")
	ErrDocumentTooLarge      = apperrors.New(http.StatusBadRequest, apperrors.DocumentTooLarge, "File is too large")
	ErrDocumentEmpty         = apperrors.New(http.StatusBadRequest, apperrors.DocumentEmpty, "File is empty")
	ErrDocumentEncoding      = apperrors.New(http.StatusBadRequest, apperrors.DocumentInvalidEncoding, "File payload is not valid base64")
	ErrDocumentDuplicate     = apperrors.New(http.StatusConflict, apperrors.DocumentDuplicateType, "A document of this type has already been uploaded")
	ErrDocumentNotRemovable  = apperrors.New(http.StatusConflict, apperrors.DocumentNotRemovable, "Only pending documents can be removed")

	// pricing
	ErrPriceBelowMinimum = apperrors.New(http.StatusBadRequest, apperrors.PricingBelowMinimum, "Price is below the catalog minimum")
	ErrInvalidDuration   = apperrors.New(http.StatusBadRequest, apperrors.PricingInvalidDuration, "Duration must be greater than zero")
	ErrInvalidAddonPrice = apperrors.New(http.StatusBadRequest, apperrors.PricingInvalidAddon, "An available addon must have a price greater than zero")

	// bookings
	ErrInvalidTransition = apperrors.New(http.StatusUnprocessableEntity, apperrors.BookingInvalidTransition, "Booking cannot move to that status")
	ErrBookingChanged    = apperrors.New(http.StatusConflict, apperrors.BookingStatusChanged, "Booking status changed; reload and try again")

	// reviews
	ErrReviewNotFeatureable = apperrors.New(http.StatusUnprocessableEntity, apperrors.ReviewNotFeatureable, "Only approved reviews rated 4 or higher can be featured")

	// staff
	ErrLastOwner        = apperrors.New(http.StatusConflict, apperrors.StaffLastOwner, "A business must keep at least one active owner")
	ErrCannotTargetSelf = apperrors.New(http.StatusBadRequest, apperrors.ValidationInvalidInput, "You cannot deactivate yourself")

	ErrEmailFailed   = apperrors.New(http.StatusBadGateway, apperrors.UpstreamEmail, "Failed to send email")
	ErrStorageFailed = apperrors.New(http.StatusBadGateway, apperrors.UpstreamStorage, "Failed to store document")
)
