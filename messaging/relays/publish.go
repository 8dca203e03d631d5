package relays

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
	"persona/engine/actors"
	"persona/engine/library"
	"persona/messaging/mailbox"
)

var ErrNotPublished = errors.New("no relay accepted the event")

type publisher interface {
	Publish(ctx context.Context, e nostr.Event) (nostr.Status, error)
	Close() error
}

var dial = func(ctx context.Context, url string) (publisher, error) {
	return nostr.RelayConnect(ctx, url)
}

// PublishToRelays sends e to every relay at once. It succeeds if at least one relay accepted it.
func PublishToRelays(ctx context.Context, e nostr.Event, relays []string) error {
	ctx, cancel := context.WithTimeout(ctx, actors.MakeOrGetConfig().GetDuration("relayTimeout"))
	defer cancel()
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for _, url := range relays {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			// bounded by relayTimeout, which the deadlock timeout always exceeds
			sane := library.ValidateSaneExecutionTime()
			defer sane()
			relay, err := dial(ctx, url)
			if err != nil {
				library.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			status, err := relay.Publish(ctx, e)
			if err != nil {
				library.LogCLI(fmt.Sprintf("could not publish to relay %s: %s", url, err), 2)
				return
			}
			if status == nostr.PublishStatusFailed {
				library.LogCLI(fmt.Sprintf("relay %s refused event %s", url, e.ID), 3)
				return
			}
			accepted.Add(1)
		}(url)
	}
	wg.Wait()
	if accepted.Load() == 0 {
		return errors.Wrapf(ErrNotPublished, "event %s", e.ID)
	}
	return nil
}

// Outbox publishes each reply as an event signed by w. With doNotPublish set, replies are only logged.
func Outbox(w library.Wallet, relays []string) mailbox.Outbox {
	return func(ctx context.Context, r mailbox.Reply) error {
		e, err := actors.ReplyEventBuilder(w, r.To, r.Destination, r.Payload, r.Value)
		if err != nil {
			return err
		}
		if actors.MakeOrGetConfig().GetBool("doNotPublish") {
			library.LogCLI(fmt.Sprintf("Not publishing reply %s to %s", e.ID, r.Destination), 4)
			return nil
		}
		return PublishToRelays(ctx, e, relays)
	}
}
