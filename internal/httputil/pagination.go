package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/betshield/betshield-api/internal/errors"
)

const (
	// DefaultPageLimit is used when the limit query parameter is absent.
	DefaultPageLimit = 20
	// MaxPageLimit caps the limit query parameter.
	MaxPageLimit = 100
)

// Page is a parsed offset/limit pair.
type Page struct {
	Offset int
	Limit  int
}

// ParsePage reads the offset and limit query parameters.
// Invalid values yield an error wrapping ErrInvalidInput.
func ParsePage(c *gin.Context) (Page, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return Page{}, apperrors.Wrap(apperrors.ErrInvalidInput, "offset must be a non-negative integer")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	if err != nil || limit < 1 || limit > MaxPageLimit {
		return Page{}, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"limit must be between 1 and "+strconv.Itoa(MaxPageLimit),
		)
	}

	return Page{Offset: offset, Limit: limit}, nil
}
