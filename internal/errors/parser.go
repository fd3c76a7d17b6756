package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
)

// AppError is a service-layer error that already knows how it is presented.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	Err     error

	origin *AppError
}

func New(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// root is the sentinel this error was derived from.
func (e *AppError) root() *AppError {
	if e.origin != nil {
		return e.origin
	}
	return e
}

// Is matches errors derived from the same sentinel. Copies made by
// WithMessage, WithDetails or Wrap keep matching it; two sentinels that
// share a code never match each other.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.root() == t.root()
}

func (e *AppError) derive() *AppError {
	cp := *e
	cp.origin = e.root()
	return &cp
}

// WithDetails returns a copy carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := e.derive()
	cp.Details = details
	return cp
}

// WithMessage returns a copy with a more specific message and the same code.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	cp := e.derive()
	cp.Message = fmt.Sprintf(format, args...)
	return cp
}

// Wrap returns a copy recording the underlying cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := e.derive()
	cp.Err = err
	return cp
}

// ErrorInfo is the normalized view of any error.
type ErrorInfo struct {
	Status  int         `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Normalize maps an error from any layer (service sentinels, gorm/postgres,
// S3, Stripe, network) onto status, code and a readable message.
func Normalize(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Internal server error"}
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return ErrorInfo{Status: appErr.Status, Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    ValidationInvalidInput,
			Message: "Invalid request body",
			Details: ValidationFields(verrs),
		}
	}

	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: "Record not found"}
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "Record already exists"}
	case stderrors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ResourceNotFound, Message: "Referenced record does not exist"}
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrorInfo{Status: http.StatusGatewayTimeout, Code: UpstreamTimeout, Message: "Upstream service timed out"}
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return postgresInfo(pgErr)
	}

	var stripeErr *stripe.Error
	if stderrors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = "Payment provider request failed"
		}
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    UpstreamPayments,
			Message: msg,
			Details: map[string]interface{}{"type": stripeErr.Type, "stripe_code": stripeErr.Code},
		}
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    UpstreamStorage,
			Message: firstNonEmpty(apiErr.ErrorMessage(), "Object storage request failed"),
			Details: map[string]interface{}{"storage_code": apiErr.ErrorCode()},
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorInfo{Status: http.StatusGatewayTimeout, Code: UpstreamTimeout, Message: "Upstream service timed out"}
		}
		return ErrorInfo{Status: http.StatusBadGateway, Code: UpstreamDatabase, Message: "Upstream service unavailable"}
	}

	return parseDatabaseMessage(err.Error())
}

// postgresInfo maps a server-reported error by SQLSTATE and passes the
// server's message through. Data errors (class 22) and constraint violations
// are the caller's fault; anything else is a database fault.
func postgresInfo(pgErr *pgconn.PgError) ErrorInfo {
	details := map[string]interface{}{"sqlstate": pgErr.Code}
	if pgErr.ConstraintName != "" {
		details["constraint"] = pgErr.ConstraintName
	}
	if pgErr.ColumnName != "" {
		details["column"] = pgErr.ColumnName
	}

	switch {
	case pgErr.Code == "23505":
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "Record already exists", Details: details}
	case pgErr.Code == "23503":
		return ErrorInfo{Status: http.StatusBadRequest, Code: ResourceNotFound, Message: "Referenced record does not exist", Details: details}
	case pgErr.Code == "23502":
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: postgresMessage(pgErr), Details: details}
	case pgErr.Code == "23514", strings.HasPrefix(pgErr.Code, "22"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: postgresMessage(pgErr), Details: details}
	}
	return ErrorInfo{Status: http.StatusBadGateway, Code: UpstreamDatabase, Message: postgresMessage(pgErr), Details: details}
}

func postgresMessage(pgErr *pgconn.PgError) string {
	parts := []string{firstNonEmpty(pgErr.Message, "Database request failed")}
	if pgErr.Detail != "" {
		parts = append(parts, pgErr.Detail)
	}
	if pgErr.Hint != "" {
		parts = append(parts, pgErr.Hint)
	}
	return strings.Join(parts, ". ")
}

// parseDatabaseMessage covers constraint errors that reach us untranslated.
func parseDatabaseMessage(errStr string) ErrorInfo {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "Record already exists"}
	case strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ResourceNotFound, Message: "Referenced record does not exist"}
	case strings.Contains(lower, "violates not-null constraint") || strings.Contains(lower, "not null constraint"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: "A required field is missing"}
	case strings.Contains(lower, "check constraint"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "A value violates a data constraint"}
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return ErrorInfo{Status: http.StatusBadGateway, Code: UpstreamDatabase, Message: "Upstream service unavailable"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Internal server error"}
}

// ValidationFields flattens binding failures to field -> rule.
func ValidationFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
