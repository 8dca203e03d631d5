package actors

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"persona/engine/library"
)

// InitEventBuilder creates the signed message that makes w the creator of program.
func InitEventBuilder(w library.Wallet, program library.Account) (nostr.Event, error) {
	return messageEvent(w, KindInit, program, nil)
}

// HandleEventBuilder creates a signed message carrying an encoded command for program.
func HandleEventBuilder(w library.Wallet, program library.Account, payload []byte) (nostr.Event, error) {
	return messageEvent(w, KindHandle, program, payload)
}

// ReplyEventBuilder creates the program's reply to requestID, addressed to destination.
func ReplyEventBuilder(w library.Wallet, requestID library.Sha256, destination library.Account, payload []byte, value uint64) (nostr.Event, error) {
	e := nostr.Event{
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      KindReply,
		Tags: nostr.Tags{
			nostr.Tag{"e", requestID, "", "reply"},
			nostr.Tag{"p", destination},
			nostr.Tag{"value", strconv.FormatUint(value, 10)},
		},
		Content: hex.EncodeToString(payload),
	}
	if err := Sign(w, &e); err != nil {
		return nostr.Event{}, err
	}
	return e, nil
}

func messageEvent(w library.Wallet, kind int, program library.Account, payload []byte) (nostr.Event, error) {
	e := nostr.Event{
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      kind,
		Tags:      nostr.Tags{nostr.Tag{"p", program}},
		Content:   hex.EncodeToString(payload),
	}
	if err := Sign(w, &e); err != nil {
		return nostr.Event{}, err
	}
	return e, nil
}
