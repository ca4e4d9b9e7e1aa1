package coach

import (
	"errors"

	"github.com/fitbod/fitcoach/internal/nutrition"
)

var (
	ErrMissingAuthHeader = errors.New("no authorization header")
	ErrInvalidToken      = errors.New("invalid token")
)

// RequestError is a failed chat request together with the language the
// conversation was last seen in.
type RequestError struct {
	Err              error
	DetectedLanguage string
}

func (e *RequestError) Error() string { return e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// UserMessage maps err to the text shown to the user. Known failures get
// fixed English sentences; anything else is passed through with a prefix.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, nutrition.ErrProfileNotFound):
		return "Profile not found. Please complete your profile setup."
	case errors.Is(err, ErrInvalidToken):
		return "Invalid token. Please log in again."
	case errors.Is(err, ErrMissingAuthHeader):
		return "Missing authorization header."
	}
	return "An error occurred: " + err.Error()
}
