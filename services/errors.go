package services

import (
	"errors"

	"github.com/Dosada05/tournament-brackets/brackets"
)

// Error kinds. Every error returned by a service matches exactly one of them with
// errors.Is, so callers can decide how to react without knowing the specific error.
var (
	// ErrConfiguration: the request is invalid; nothing was changed.
	ErrConfiguration = errors.New("configuration error")
	// ErrStateConflict: the request clashes with the current state; nothing was changed.
	ErrStateConflict = errors.New("state conflict")
	// ErrReference: an unknown tournament, match or player was referenced.
	ErrReference = errors.New("reference error")
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Is matches a sentinel of the same kind whose cause err wraps, so a classified builder
// error still matches the service sentinel built from the same cause.
func (e *kindError) Is(target error) bool {
	t, ok := target.(*kindError)
	return ok && t.kind == e.kind && errors.Is(e.err, t.err)
}

func withKind(kind, err error) error {
	return &kindError{kind: kind, err: err}
}

var (
	ErrInvalidTournamentInput    = withKind(ErrConfiguration, errors.New("invalid tournament input"))
	ErrUnsupportedTournamentType = withKind(ErrConfiguration, errors.New("unsupported tournament type"))
	ErrRosterSize                = withKind(ErrConfiguration, errors.New("roster size does not match the tournament"))
	ErrInvalidGroupSettings      = withKind(ErrConfiguration, brackets.ErrInvalidGroupSettings)
	ErrInvalidWinnerSlot         = withKind(ErrConfiguration, errors.New("winner must be 1, 2 or empty and point at a filled slot"))
	ErrInvalidScore              = withKind(ErrConfiguration, brackets.ErrInvalidScore)
	ErrInvalidSeedingStrategy    = withKind(ErrConfiguration, errors.New("unknown seeding strategy"))

	ErrBracketAlreadyExists = withKind(ErrStateConflict, errors.New("bracket already exists for this tournament"))
	ErrBracketNotBuilt      = withKind(ErrStateConflict, errors.New("tournament has no first phase bracket yet"))
	ErrMatchAlreadyDecided  = withKind(ErrStateConflict, errors.New("match result has already been recorded"))
	ErrWrongTournamentType  = withKind(ErrStateConflict, errors.New("operation is not available for this tournament type"))
	ErrQualifiersUndecided  = withKind(ErrStateConflict, brackets.ErrQualifiersUndecided)

	ErrTournamentNotFound = withKind(ErrReference, errors.New("tournament not found"))
	ErrMatchNotFound      = withKind(ErrReference, errors.New("match not found"))
	ErrPlayerNotFound     = withKind(ErrReference, errors.New("player not found in tournament roster"))
)
