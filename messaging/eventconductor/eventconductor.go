package eventconductor

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"persona/engine/library"
	"persona/state/identity"
)

var tracer = otel.Tracer("eventconductor")

var (
	ErrNotInitialized     = errors.New("identity program has not been initialized")
	ErrAlreadyInitialized = errors.New("identity program is already initialized")
	ErrReplyFailed        = errors.New("failed to share the data")
)

// Runtime is the host's view of the message currently being processed.
type Runtime interface {
	MessageID() library.Sha256
	Source() library.Account
	ProgramID() library.Account
	Payload() []byte
	// Reply sends payload back to Source. Value is the reply identifier, always 0 here.
	Reply(payload []byte, value uint64) error
}

// Conductor is the identity program. Init runs once and builds the record store, every later message
// goes through Handle. The host must not call either concurrently.
type Conductor struct {
	store *identity.Store
	mutex *deadlock.RWMutex
}

func New() *Conductor {
	return &Conductor{mutex: &deadlock.RWMutex{}}
}

// Init stores the sender as creator together with the default identity data.
func (c *Conductor) Init(ctx context.Context, rt Runtime) (err error) {
	_, span := tracer.Start(ctx, "Conductor.Init")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
	}()
	span.SetAttributes(attribute.String("source", rt.Source()), attribute.String("message", rt.MessageID()))

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.store != nil {
		return errors.Wrapf(ErrAlreadyInitialized, "creator is %s", c.store.Creator())
	}
	store, err := identity.New(rt.Source(), rt.ProgramID())
	if err != nil {
		return err
	}
	c.store = store
	library.LogCLI(fmt.Sprintf("Identity program initialized by %s", store.Creator()), 4)
	return nil
}

// Handle decodes the payload as a Command and runs it. Nothing is mutated unless the whole payload decodes.
func (c *Conductor) Handle(ctx context.Context, rt Runtime) (err error) {
	_, span := tracer.Start(ctx, "Conductor.Handle")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
	}()
	span.SetAttributes(attribute.String("source", rt.Source()), attribute.String("message", rt.MessageID()))

	c.mutex.RLock()
	store := c.store
	c.mutex.RUnlock()
	if store == nil {
		return ErrNotInitialized
	}

	command, err := DecodeCommand(rt.Payload())
	if err != nil {
		return err
	}

	switch cmd := command.(type) {
	case Get:
		span.SetAttributes(attribute.String("command", "get"))
		return c.handleGet(store, rt)
	case Update:
		span.SetAttributes(attribute.String("command", "update"), attribute.Int("modifications", len(cmd.Modifications)))
		c.handleUpdate(store, rt, cmd)
		return nil
	}
	return errors.Wrapf(ErrMalformedCommand, "unhandled command %T", command)
}

func (c *Conductor) handleGet(store *identity.Store, rt Runtime) error {
	b, err := identity.EncodeIdentityData(store.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReplyFailed, err)
	}
	if err := rt.Reply(b, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrReplyFailed, err)
	}
	return nil
}

func (c *Conductor) handleUpdate(store *identity.Store, rt Runtime, cmd Update) {
	if rt.Source() != store.Creator() {
		library.LogCLI(fmt.Sprintf("Update %s from %s who is not the creator", rt.MessageID(), rt.Source()), 3)
	}
	store.Apply(cmd.Modifications)
	library.LogCLI(fmt.Sprintf("Applied %d modifications from %s, state is now %s", len(cmd.Modifications), rt.MessageID(), store.Snapshot().Hash()), 4)
}

// Snapshot is the current record, false before Init.
func (c *Conductor) Snapshot() (identity.IdentityData, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.store == nil {
		return identity.IdentityData{}, false
	}
	return c.store.Snapshot(), true
}

func (c *Conductor) Creator() (library.Account, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.store == nil {
		return "", false
	}
	return c.store.Creator(), true
}
