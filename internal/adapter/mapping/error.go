package mapping

import (
	"errors"
	"net/http"

	"github.com/eslsoft/oghmai/internal/entity"
	"github.com/eslsoft/oghmai/internal/usecase/generation"
)

var invalidInput = []error{
	entity.ErrInvalidStatus,
	entity.ErrInvalidWord,
	entity.ErrInvalidDefinition,
	entity.ErrInvalidLanguage,
	entity.ErrInvalidUserID,
	entity.ErrInvalidGuess,
	entity.ErrInvalidFilter,
}

// ToHTTPStatus classifies a usecase error for the REST adapter.
func ToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isAny(err, invalidInput...):
		return http.StatusBadRequest
	case isAny(err, entity.ErrWordNotFound, entity.ErrChallengeNotFound, entity.ErrNoTestableWords):
		return http.StatusNotFound
	case isAny(err, entity.ErrDuplicateWord, entity.ErrStaleWord):
		return http.StatusConflict
	case errors.Is(err, generation.ErrNoResult):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToErrorCode returns a stable machine-readable code for err.
func ToErrorCode(err error) string {
	switch ToHTTPStatus(err) {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "generation_failed"
	default:
		return "internal"
	}
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
