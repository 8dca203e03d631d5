package eventcatcher

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"persona/engine/actors"
	"persona/engine/library"
	"persona/messaging/eventconductor"
	"persona/messaging/mailbox"
)

var (
	ErrBadSignature   = errors.New("event signature does not verify")
	ErrNotAddressed   = errors.New("event is not addressed to this program")
	ErrUnexpectedKind = errors.New("event kind is not a program message")
	ErrBadContent     = errors.New("event content is not a hex payload")
	ErrNoRelays       = errors.New("could not subscribe to any relay")
	errSilent         = errors.New("relays went silent")
	errDisconnected   = errors.New("every relay connection closed")
)

// ToMessage maps a signed nostr event onto a message for program. The signer becomes the source.
func ToMessage(e nostr.Event, program library.Account) (mailbox.Message, error) {
	if ok, err := e.CheckSignature(); !ok {
		if err != nil {
			return mailbox.Message{}, errors.Wrap(ErrBadSignature, err.Error())
		}
		return mailbox.Message{}, errors.Wrap(ErrBadSignature, e.ID)
	}
	if !library.IsAddressedTo(e, program) {
		return mailbox.Message{}, errors.Wrap(ErrNotAddressed, e.ID)
	}
	var kind mailbox.Kind
	switch e.Kind {
	case actors.KindInit:
		kind = mailbox.KindInit
	case actors.KindHandle:
		kind = mailbox.KindHandle
	default:
		return mailbox.Message{}, errors.Wrapf(ErrUnexpectedKind, "%d", e.Kind)
	}
	payload, err := hex.DecodeString(e.Content)
	if err != nil {
		return mailbox.Message{}, errors.Wrap(ErrBadContent, err.Error())
	}
	return mailbox.Message{
		ID:      e.ID,
		Source:  e.PubKey,
		Kind:    kind,
		Payload: payload,
	}, nil
}

func filters(program library.Account, since *nostr.Timestamp) nostr.Filters {
	return nostr.Filters{{
		Kinds: []int{actors.KindInit, actors.KindHandle},
		Tags:  map[string][]string{"p": {program}},
		Since: since,
	}}
}

// Catch feeds program messages from the configured relays into mb until ctx is done or the system
// goes to sleep. Stored events are replayed in the order this engine first delivered them (see
// journal) to rebuild state before live events are delivered. The subscription is renewed whenever the relays go quiet or drop.
func Catch(ctx context.Context, mb *mailbox.Mailbox) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var sleepChan = make(chan bool)
	sleeper(sleepChan)
	go func() {
		select {
		case <-sleepChan:
			library.LogCLI("system sleep detected, terminating application", 2)
			cancel()
		case <-ctx.Done():
		}
	}()

	urls := actors.MakeOrGetConfig().GetStringSlice("relaysMust")
	if len(urls) == 0 {
		return errors.Wrap(ErrNoRelays, "relaysMust is empty")
	}
	s := &session{mailbox: mb, urls: urls, catchingUp: true, journal: loadJournal(mb.Program())}
	for {
		err := s.run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		library.LogCLI(fmt.Sprintf("Restarting Eventcatcher: %s", err), 4)
		if !errors.Is(err, errSilent) {
			// relays are unreachable, don't spin
			select {
			case <-time.After(actors.MakeOrGetConfig().GetDuration("relayTimeout")):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

type session struct {
	mailbox    *mailbox.Mailbox
	urls       []string
	catchingUp bool
	backlog    []nostr.Event
	lastEvent  nostr.Timestamp
	journal    *journal
}

func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var since *nostr.Timestamp
	if s.lastEvent > 0 {
		// relays disagree on clocks, so overlap a little and let the replay guard drop what we already have
		t := s.lastEvent - 60
		since = &t
	}
	events := make(chan nostr.Event)
	eose := make(chan struct{}, len(s.urls))
	closed := make(chan struct{}, len(s.urls))
	connected := 0
	for _, url := range s.urls {
		relay, err := nostr.RelayConnect(ctx, url)
		if err != nil {
			library.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
			continue
		}
		sub, err := relay.Subscribe(ctx, filters(s.mailbox.Program(), since))
		if err != nil {
			library.LogCLI(fmt.Sprintf("could not subscribe to relay %s: %s", url, err), 2)
			relay.Close()
			continue
		}
		library.LogCLI("Connected to "+relay.URL, 4)
		connected++
		go forward(ctx, relay, sub, events, eose, closed)
	}
	if connected == 0 {
		return ErrNoRelays
	}

	pending := connected
	catchUp := time.NewTimer(actors.MakeOrGetConfig().GetDuration("relayTimeout"))
	defer catchUp.Stop()
	silenceTimeout := actors.MakeOrGetConfig().GetDuration("silenceTimeout")
	silence := time.NewTimer(silenceTimeout)
	defer silence.Stop()
	for {
		select {
		case e := <-events:
			silence.Reset(silenceTimeout)
			if e.CreatedAt > s.lastEvent {
				s.lastEvent = e.CreatedAt
			}
			if s.catchingUp {
				s.backlog = append(s.backlog, e)
				continue
			}
			s.deliver(ctx, e)
		case <-eose:
			pending--
			if pending == 0 {
				s.replayBacklog(ctx)
			}
		case <-catchUp.C:
			s.replayBacklog(ctx)
		case <-closed:
			connected--
			if connected == 0 {
				return errDisconnected
			}
		case <-silence.C:
			return errSilent
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func forward(ctx context.Context, relay *nostr.Relay, sub *nostr.Subscription, events chan<- nostr.Event, eose, closed chan<- struct{}) {
	defer func() {
		relay.Close()
		closed <- struct{}{}
	}()
	endOfStored := sub.EndOfStoredEvents
	for {
		select {
		case e, ok := <-sub.Events:
			if !ok || e == nil {
				library.LogCLI("Terminating connection to relay "+relay.URL, 3)
				return
			}
			select {
			case events <- *e:
			case <-ctx.Done():
				return
			}
		case <-endOfStored:
			endOfStored = nil
			eose <- struct{}{}
		case <-ctx.Done():
			return
		}
	}
}

// replayBacklog delivers the events collected while catching up. Events this engine delivered
// before go first, in their original order, then the rest oldest first.
func (s *session) replayBacklog(ctx context.Context) {
	if !s.catchingUp {
		return
	}
	s.catchingUp = false
	slices.SortFunc(s.backlog, func(a, b nostr.Event) bool {
		pa, knownA := s.journal.Position(a.ID)
		pb, knownB := s.journal.Position(b.ID)
		switch {
		case knownA && knownB:
			return pa < pb
		case knownA != knownB:
			return knownA
		case a.CreatedAt != b.CreatedAt:
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
	library.LogCLI(fmt.Sprintf("Replaying %d stored events", len(s.backlog)), 4)
	for _, e := range s.backlog {
		s.deliver(ctx, e)
	}
	s.backlog = nil
}

// deliver hands e to the mailbox. Messages already in the journal were answered when they were
// first delivered, so they run as historic and their replies stay local.
func (s *session) deliver(ctx context.Context, e nostr.Event) {
	msg, err := ToMessage(e, s.mailbox.Program())
	if err != nil {
		library.LogCLI(err.Error(), 3)
		return
	}
	_, msg.Historic = s.journal.Position(msg.ID)
	res := s.mailbox.Send(ctx, msg)
	switch {
	case res.Err == nil:
		library.LogCLI(fmt.Sprintf("Processed %s message %s from %s", msg.Kind, msg.ID, msg.Source), 4)
	case errors.Is(res.Err, mailbox.ErrDuplicateMessage):
		library.LogCLI(res.Err.Error(), 5)
		return
	case !reachedProgram(res.Err):
		library.LogCLI(fmt.Sprintf("Message %s was not delivered: %s", msg.ID, res.Err), 2)
		return
	default:
		library.LogCLI(fmt.Sprintf("Message %s was rejected: %s", msg.ID, res.Err), 3)
	}
	if err := s.journal.Record(msg.ID); err != nil {
		library.LogCLI(err.Error(), 1)
	}
}

// reachedProgram is false for failures that leave the program as if the message never arrived.
func reachedProgram(err error) bool {
	return !errors.Is(err, mailbox.ErrStopped) &&
		!errors.Is(err, eventconductor.ErrReplyFailed) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
