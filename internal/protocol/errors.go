package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Grid routing.
	ErrGridNotFound = "E_GRID_NOT_FOUND"
	ErrGridBusy     = "E_GRID_BUSY"

	// Flip submission.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrRateLimit  = "E_RATE_LIMIT"
	ErrConflict   = "E_CONFLICT"
	ErrStale      = "E_STALE"
	ErrNoFunds    = "E_NO_FUNDS"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrGridNotFound:    {},
	ErrGridBusy:        {},
	ErrBadRequest:      {},
	ErrRateLimit:       {},
	ErrConflict:        {},
	ErrStale:           {},
	ErrNoFunds:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
