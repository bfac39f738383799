package history

import "strings"

// ExplorerTxURL builds the block-explorer page of a transaction
func ExplorerTxURL(base, hash string) string {
	if hash == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/tx/" + hash
}
