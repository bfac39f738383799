package service

import "errors"

var (
	// ErrMissingCredential is a configuration error: the history source cannot run without a credential
	ErrMissingCredential = errors.New("missing ledger-history API key: set ETHERSCAN_API_KEY or explorer.api_key")

	// ErrInvalidAddress is returned for an account that is not a 0x-prefixed 20-byte hex address
	ErrInvalidAddress = errors.New("invalid account address")

	// ErrNoActiveAccount is returned when classification is attempted without a connected account
	ErrNoActiveAccount = errors.New("no active account")
)

// IsConfigurationError reports whether err must not be retried within the current cycle.
// Configuration errors clear the displayed history.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrInvalidAddress)
}
