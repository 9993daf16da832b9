package aggregation

import "errors"

// ErrNoMatches signals that no matches exist for the requested entity and
// window. Callers must surface it as not-found, never as a zeroed profile.
var ErrNoMatches = errors.New("no matches for requested window")

// ErrUnknownWindow signals an unparseable window name.
var ErrUnknownWindow = errors.New("unknown aggregation window")
