package graph

import (
	"errors"
	"strings"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/safehaven"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/zap"
)

const (
	CodeUser            = "USER"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeRelogin         = "RELOGIN"
)

const internalErrorMessage = "Oops!, that's on us. Please try again later."

// UserError is an error whose message is safe to show to API clients.
type UserError struct {
	Message string
	Code    string
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Extensions() map[string]interface{} {
	code := e.Code
	if code == "" {
		code = CodeUser
	}
	return map[string]interface{}{"code": code}
}

func NewUserError(message string) *UserError {
	return &UserError{Message: message, Code: CodeUser}
}

var (
	errUnauthenticated = &UserError{Message: "You must be logged in to do that.", Code: CodeUnauthenticated}
	errForbidden       = &UserError{Message: "You are not allowed to do that.", Code: CodeForbidden}
)

var userMessages = []struct {
	err     error
	message string
}{
	{user.ErrUserNotFound, "User not found."},
	{refreshtoken.ErrUserNotFound, "User not found."},
	{user.ErrEmailTaken, "User with this email already exists."},
	{user.ErrInvalidEmail, "Your email is invalid."},
	{user.ErrInvalidPhone, "Your phone is invalid."},
	{user.ErrInvalidCredentials, "Invalid email or password."},
	{user.ErrIncorrectPassword, "Old password is incorrect."},
	{user.ErrInactiveAccount, "Your account is inactive."},
	{safehaven.ErrInvalidIdentityType, "You have to provide a valid type for verification"},
	{safehaven.ErrInvalidNumber, "You have to provide a valid number for verification"},
	{safehaven.ErrMissingIdentity, "identityId and otp are required"},
}

// toUserError maps domain failures a client can act on to a UserError and
// passes everything else through untouched.
func toUserError(err error) error {
	if err == nil {
		return nil
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}

	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return NewUserError(m.message)
		}
	}

	if errors.Is(err, user.ErrWeakPassword) || errors.Is(err, user.ErrInvalidInput) {
		return NewUserError(capitalize(err.Error()) + ".")
	}

	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// FormatErrors replaces every error that did not originate as a UserError
// with a generic message. The original is logged.
func FormatErrors(errs []*gqlerrors.QueryError, logger *logging.Service) []*gqlerrors.QueryError {
	for i, qe := range errs {
		if !isInternal(qe) {
			continue
		}

		if logger != nil {
			logger.Error("unhandled resolver error",
				zap.String("message", qe.Message),
				zap.Any("path", qe.Path),
				zap.NamedError("cause", qe.ResolverError))
		}

		errs[i] = &gqlerrors.QueryError{
			Message:    internalErrorMessage,
			Path:       qe.Path,
			Extensions: map[string]interface{}{"code": "INTERNAL_SERVER_ERROR"},
		}
	}
	return errs
}

func isInternal(qe *gqlerrors.QueryError) bool {
	if qe.ResolverError != nil {
		var ue *UserError
		return !errors.As(qe.ResolverError, &ue)
	}
	return strings.HasPrefix(qe.Message, "panic occurred")
}
