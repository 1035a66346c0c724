package v1

import (
	"context"
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/server/middleware"
)

// currentUser returns the authenticated user or a 401.
func currentUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error401Unauthorized("missing user context")
	}
	return userID, nil
}

// serviceError maps domain errors to problem responses. Anything the
// caller cannot reach is reported as not found, so resource existence
// does not leak across boards.
func serviceError(err error, notFound, failure string) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return huma.Error422UnprocessableEntity(validationMessage(ve), &huma.ErrorDetail{
			Message:  ve.Message,
			Location: "body." + ve.Field,
		})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return huma.Error404NotFound(notFound)
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("resource already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("authentication required")
	default:
		return huma.Error500InternalServerError(failure, err)
	}
}

// validationMessage renders sentence-style messages as is and prefixes
// fragments such as "can't be blank" with their field.
func validationMessage(ve *domain.ValidationError) string {
	r, _ := utf8.DecodeRuneInString(ve.Message)
	if unicode.IsUpper(r) {
		return ve.Message
	}
	return ve.Error()
}
