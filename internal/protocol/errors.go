package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Policy layer: rejected preconditions, reported to the player.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrQuotaExceeded = "E_QUOTA_EXCEEDED"
	ErrSessionActive = "E_SESSION_ACTIVE"
	ErrNoSession     = "E_NO_SESSION"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrCooldown      = "E_COOLDOWN"
	ErrNoFunds       = "E_NO_FUNDS"
	ErrNotFound      = "E_NOT_FOUND"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrQuotaExceeded:   {},
	ErrSessionActive:   {},
	ErrNoSession:       {},
	ErrInvalidTarget:   {},
	ErrCooldown:        {},
	ErrNoFunds:         {},
	ErrNotFound:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
