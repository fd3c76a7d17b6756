package errors

// Error codes returned in the "code" field of error responses.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map on the code, never on the message.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden         = "AUTHZ_FORBIDDEN"
	AuthzRoleNotAllowed    = "AUTHZ_ROLE_NOT_ALLOWED"
	AuthzProviderNotFound  = "AUTHZ_PROVIDER_NOT_FOUND"
	AuthzCapabilityMissing = "AUTHZ_CAPABILITY_MISSING"
	AuthzAdminOnly         = "AUTHZ_ADMIN_ONLY"
	AuthzBusinessMismatch  = "AUTHZ_BUSINESS_MISMATCH"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput    = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID       = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat   = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange    = "VALIDATION_INVALID_RANGE"
	ValidationRequired        = "VALIDATION_REQUIRED"
	ValidationPayloadTooLarge = "VALIDATION_PAYLOAD_TOO_LARGE"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"
	ResourceVersionStale  = "RESOURCE_VERSION_STALE"

	// ==================== Onboarding (ONBOARDING_) ====================
	OnboardingLinkInvalid        = "ONBOARDING_LINK_INVALID"
	OnboardingStepLocked         = "ONBOARDING_STEP_LOCKED"
	OnboardingIncomplete         = "ONBOARDING_INCOMPLETE"
	OnboardingAlreadySubmitted   = "ONBOARDING_ALREADY_SUBMITTED"
	OnboardingIdentityUnverified = "ONBOARDING_IDENTITY_UNVERIFIED"
	OnboardingRateLimited        = "ONBOARDING_RATE_LIMITED"

	// ==================== Documents (DOCUMENT_) ====================
	DocumentInvalidType       = "DOCUMENT_INVALID_TYPE"
	DocumentTypeNotUploadable = "DOCUMENT_TYPE_NOT_UPLOADABLE"
	DocumentInvalidExtension  = "DOCUMENT_INVALID_EXTENSION"
	DocumentContentMismatch   = "DOCUMENT_CONTENT_MISMATCH"
	DocumentTooLarge          = "DOCUMENT_TOO_LARGE"
	DocumentEmpty             = "DOCUMENT_EMPTY"
	DocumentDuplicateType     = "DOCUMENT_DUPLICATE_TYPE"
	DocumentInvalidEncoding   = "DOCUMENT_INVALID_ENCODING"
	DocumentNotRemovable      = "DOCUMENT_NOT_REMOVABLE"

	// ==================== Pricing (PRICING_) ====================
	PricingBelowMinimum    = "PRICING_BELOW_MINIMUM"
	PricingInvalidAddon    = "PRICING_INVALID_ADDON"
	PricingInvalidDuration = "PRICING_INVALID_DURATION"

	// ==================== Bookings (BOOKING_) ====================
	BookingInvalidTransition = "BOOKING_INVALID_TRANSITION"
	BookingStatusChanged     = "BOOKING_STATUS_CHANGED"

	// ==================== Reviews (REVIEW_) ====================
	ReviewNotFeatureable = "REVIEW_NOT_FEATUREABLE"

	// ==================== Staff (STAFF_) ====================
	StaffLastOwner = "STAFF_LAST_OWNER"

	// ==================== Upstream dependencies (UPSTREAM_) ====================
	UpstreamDatabase = "UPSTREAM_DATABASE"
	UpstreamStorage  = "UPSTREAM_STORAGE"
	UpstreamPayments = "UPSTREAM_PAYMENTS"
	UpstreamEmail    = "UPSTREAM_EMAIL"
	UpstreamTimeout  = "UPSTREAM_TIMEOUT"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
)
