package mailbox

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"persona/engine/library"
	"persona/messaging/eventconductor"
	"persona/state/replay"
)

type Kind int

const (
	KindInit Kind = iota + 1
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindHandle:
		return "handle"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrDuplicateMessage = errors.New("message has already been delivered")
	ErrUnknownKind      = errors.New("unknown message kind")
	ErrReplyNotAllowed  = errors.New("only handle messages can be replied to")
	ErrDuplicateReply   = errors.New("message has already been replied to")
	ErrStopped          = errors.New("mailbox is not running")
)

// Message is one delivery to the program.
type Message struct {
	ID      library.Sha256
	Source  library.Account
	Kind    Kind
	Payload []byte
	// Historic messages are replayed to rebuild state. Their replies were sent when they first arrived.
	Historic bool
}

// Reply is what the program sent back while handling a message.
type Reply struct {
	To          library.Sha256
	Destination library.Account
	Payload     []byte
	Value       uint64
}

type Result struct {
	Message Message
	Reply   *Reply
	Err     error
}

// Program is the actor behind the mailbox.
type Program interface {
	Init(ctx context.Context, rt eventconductor.Runtime) error
	Handle(ctx context.Context, rt eventconductor.Runtime) error
}

// Outbox carries a reply to its destination. A returned error fails the invocation that replied.
type Outbox func(ctx context.Context, r Reply) error

type envelope struct {
	ctx  context.Context
	msg  Message
	done chan Result
}

// Mailbox delivers messages to the program strictly one at a time, in the order they arrive.
type Mailbox struct {
	program library.Account
	actor   Program
	outbox  Outbox
	guard   *replay.Guard
	inbox   chan envelope
	queue   *library.Stack[envelope]
	stopped chan struct{}
}

func New(program library.Account, actor Program, outbox Outbox, guard *replay.Guard) *Mailbox {
	if guard == nil {
		guard = replay.New(0)
	}
	return &Mailbox{
		program: program,
		actor:   actor,
		outbox:  outbox,
		guard:   guard,
		inbox:   make(chan envelope),
		queue:   library.NewStack[envelope](16),
		stopped: make(chan struct{}),
	}
}

func (m *Mailbox) Program() library.Account {
	return m.program
}

// Run processes messages until ctx is done. It must be called exactly once.
func (m *Mailbox) Run(ctx context.Context) {
	defer close(m.stopped)
	for {
		select {
		case <-ctx.Done():
			for {
				env, ok := m.queue.Pop()
				if !ok {
					return
				}
				env.done <- Result{Message: env.msg, Err: ErrStopped}
			}
		case env := <-m.inbox:
			m.queue.Push(env)
		L:
			for {
				select {
				case env := <-m.inbox:
					m.queue.Push(env)
				default:
					break L
				}
			}
			for ctx.Err() == nil {
				env, ok := m.queue.Pop()
				if !ok {
					break
				}
				env.done <- m.deliver(env)
			}
		}
	}
}

// Send queues msg and waits for the program to finish with it. If ctx ends first the message may
// still be delivered, but its result is dropped.
func (m *Mailbox) Send(ctx context.Context, msg Message) Result {
	done := make(chan Result, 1)
	select {
	case m.inbox <- envelope{ctx: ctx, msg: msg, done: done}:
	case <-m.stopped:
		return Result{Message: msg, Err: ErrStopped}
	case <-ctx.Done():
		return Result{Message: msg, Err: ctx.Err()}
	}
	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{Message: msg, Err: ctx.Err()}
	}
}

func (m *Mailbox) deliver(env envelope) Result {
	msg := env.msg
	if !m.guard.Admit(msg.ID) {
		return Result{Message: msg, Err: errors.Wrap(ErrDuplicateMessage, msg.ID)}
	}
	rt := &invocation{ctx: env.ctx, mailbox: m, msg: msg}
	var err error
	switch msg.Kind {
	case KindInit:
		err = m.actor.Init(env.ctx, rt)
	case KindHandle:
		err = m.actor.Handle(env.ctx, rt)
	default:
		err = errors.Wrap(ErrUnknownKind, msg.Kind.String())
	}
	if err != nil {
		if errors.Is(err, eventconductor.ErrReplyFailed) {
			// the sender may resubmit the same message once the transport recovers
			m.guard.Forget(msg.ID)
		}
		library.LogCLI(fmt.Sprintf("%s message %s from %s failed: %s", msg.Kind, msg.ID, msg.Source, err), 2)
		return Result{Message: msg, Err: err}
	}
	return Result{Message: msg, Reply: rt.reply}
}

// invocation is the runtime context handed to the program for a single message.
type invocation struct {
	ctx     context.Context
	mailbox *Mailbox
	msg     Message
	reply   *Reply
}

func (i *invocation) MessageID() library.Sha256  { return i.msg.ID }
func (i *invocation) Source() library.Account    { return i.msg.Source }
func (i *invocation) ProgramID() library.Account { return i.mailbox.program }
func (i *invocation) Payload() []byte            { return i.msg.Payload }

func (i *invocation) Reply(payload []byte, value uint64) error {
	if i.msg.Kind != KindHandle {
		return ErrReplyNotAllowed
	}
	if i.reply != nil {
		return ErrDuplicateReply
	}
	r := Reply{
		To:          i.msg.ID,
		Destination: i.msg.Source,
		Payload:     append([]byte(nil), payload...),
		Value:       value,
	}
	if i.mailbox.outbox != nil && !i.msg.Historic {
		if err := i.mailbox.outbox(i.ctx, r); err != nil {
			return err
		}
	}
	i.reply = &r
	return nil
}
