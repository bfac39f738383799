package service

// AccountListener is invoked with the new active account; an empty string
// means the wallet was disconnected
type AccountListener func(account string)

// AccountProvider exposes the currently connected account and change notifications
type AccountProvider interface {
	// Current returns the active account or an empty string
	Current() string

	// Subscribe registers a listener and returns a function that removes it
	Subscribe(listener AccountListener) (unsubscribe func())
}
