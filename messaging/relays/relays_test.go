package relays

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"persona/engine/actors"
	"persona/engine/library"
	"persona/messaging/mailbox"
)

type fakeRelay struct {
	status nostr.Status
	err    error
	got    chan nostr.Event
}

func (f *fakeRelay) Publish(ctx context.Context, e nostr.Event) (nostr.Status, error) {
	if f.got != nil {
		f.got <- e
	}
	return f.status, f.err
}

func (f *fakeRelay) Close() error { return nil }

func withRelays(t *testing.T, relays map[string]*fakeRelay) {
	t.Helper()
	config := viper.New()
	config.Set("relayTimeout", time.Second)
	actors.SetConfig(config)
	old := dial
	dial = func(ctx context.Context, url string) (publisher, error) {
		r, ok := relays[url]
		if !ok {
			return nil, errors.New("connection refused")
		}
		return r, nil
	}
	t.Cleanup(func() {
		dial = old
		actors.SetConfig(nil)
	})
}

func wallet(t *testing.T) library.Wallet {
	t.Helper()
	w, err := actors.WalletFromSeedWords("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestPublishNeedsOneRelay(t *testing.T) {
	withRelays(t, map[string]*fakeRelay{
		"wss://good":   {status: nostr.PublishStatusSucceeded},
		"wss://refuse": {status: nostr.PublishStatusFailed},
	})
	e := nostr.Event{ID: "x"}
	if err := PublishToRelays(context.Background(), e, []string{"wss://good", "wss://refuse", "wss://down"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	err := PublishToRelays(context.Background(), e, []string{"wss://refuse", "wss://down"})
	if !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
}

func TestOutboxPublishesSignedReply(t *testing.T) {
	got := make(chan nostr.Event, 1)
	withRelays(t, map[string]*fakeRelay{"wss://good": {status: nostr.PublishStatusSucceeded, got: got}})
	w := wallet(t)
	caller := strings.Repeat("0e", 32)
	request := strings.Repeat("ab", 32)
	out := Outbox(w, []string{"wss://good"})
	if err := out(context.Background(), mailbox.Reply{To: request, Destination: caller, Payload: []byte{0x02}}); err != nil {
		t.Fatalf("outbox: %v", err)
	}
	e := <-got
	if !IsReply(e, w.Account, request) {
		t.Fatalf("published event is not a valid reply: %+v", e)
	}
	if !library.IsAddressedTo(e, caller) || e.Content != "02" {
		t.Fatalf("unexpected reply %+v", e)
	}
}

func TestOutboxRejection(t *testing.T) {
	withRelays(t, map[string]*fakeRelay{"wss://refuse": {status: nostr.PublishStatusFailed}})
	out := Outbox(wallet(t), []string{"wss://refuse"})
	err := out(context.Background(), mailbox.Reply{To: strings.Repeat("ab", 32), Destination: strings.Repeat("0e", 32)})
	if !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
}

func TestIsReply(t *testing.T) {
	w := wallet(t)
	request := strings.Repeat("ab", 32)
	e, err := actors.ReplyEventBuilder(w, request, strings.Repeat("0e", 32), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !IsReply(e, w.Account, request) {
		t.Fatal("valid reply rejected")
	}
	if IsReply(e, strings.Repeat("11", 32), request) {
		t.Fatal("reply from another program accepted")
	}
	if IsReply(e, w.Account, strings.Repeat("cd", 32)) {
		t.Fatal("reply to another request accepted")
	}
	e.Content = "ff"
	if IsReply(e, w.Account, request) {
		t.Fatal("tampered reply accepted")
	}
}
