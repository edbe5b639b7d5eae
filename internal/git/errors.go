package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Error kinds surfaced by the acquirer and the aggregator. The go-git error
// that caused them stays in the chain.
var (
	ErrAuthentication       = errors.New("authentication failed")
	ErrTransport            = errors.New("transport failure")
	ErrInvalidDestination   = errors.New("invalid destination")
	ErrUnreadableRepository = errors.New("unreadable repository")
	ErrNotCloned            = errors.New("repository not cloned")
	ErrDetachedHead         = errors.New("HEAD is detached")
)

// classifyCloneError maps a clone or fetch failure onto ErrAuthentication or
// ErrTransport. Nothing is retried.
func classifyCloneError(source string, err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		strings.Contains(err.Error(), "unable to authenticate"):
		return fmt.Errorf("%w: %s: %w", ErrAuthentication, source, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrTransport, source, err)
	}
}
