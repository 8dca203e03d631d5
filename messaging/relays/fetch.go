package relays

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
	"persona/engine/actors"
	"persona/engine/library"
)

var ErrNoReply = errors.New("no reply received")

// FetchReply waits on every relay for program's reply to requestID and returns the first valid one.
func FetchReply(ctx context.Context, relays []string, program library.Account, requestID library.Sha256) (nostr.Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	filters := nostr.Filters{{
		Kinds:   []int{actors.KindReply},
		Authors: []string{program},
		Tags:    map[string][]string{"e": {requestID}},
	}}
	replies := make(chan nostr.Event, len(relays))
	for _, url := range relays {
		go func(url string) {
			relay, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				library.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			sub, err := relay.Subscribe(ctx, filters)
			if err != nil {
				library.LogCLI(err.Error(), 2)
				return
			}
			for {
				select {
				case e, ok := <-sub.Events:
					if !ok || e == nil {
						return
					}
					if IsReply(*e, program, requestID) {
						replies <- *e
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(url)
	}
	select {
	case e := <-replies:
		return e, nil
	case <-ctx.Done():
		return nostr.Event{}, errors.Wrapf(ErrNoReply, "request %s: %s", requestID, ctx.Err())
	}
}

// IsReply reports whether e is a correctly signed reply by program to requestID.
func IsReply(e nostr.Event, program library.Account, requestID library.Sha256) bool {
	if e.Kind != actors.KindReply || e.PubKey != program {
		return false
	}
	if id, ok := library.GetFirstReply(e); !ok || id != requestID {
		return false
	}
	ok, _ := e.CheckSignature()
	return ok
}
