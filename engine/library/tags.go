package library

import (
	"github.com/nbd-wtf/go-nostr"
)

func GetFirstTag(e nostr.Event, startsWith string) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) > 1 && tag.StartsWith([]string{startsWith}) {
			return tag.Value(), true
		}
	}
	return "", false
}

// GetFirstReply returns the event id this event replies to, from an e tag marked "reply".
func GetFirstReply(e nostr.Event) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) > 3 && tag[0] == "e" && tag[3] == "reply" {
			return tag[1], true
		}
	}
	return "", false
}

// IsAddressedTo reports whether the event carries a p tag naming the account.
func IsAddressedTo(e nostr.Event, account Account) bool {
	for _, tag := range e.Tags {
		if len(tag) > 1 && tag[0] == "p" && tag[1] == account {
			return true
		}
	}
	return false
}
