package eventconductor

import (
	"github.com/centrifuge-io/go-substrate-rpc-client/v4/scale"
	"github.com/pkg/errors"
	"persona/engine/library"
	"persona/state/identity"
)

// ErrMalformedCommand means the message payload is not a valid Command.
var ErrMalformedCommand = errors.New("failed to decode command")

// Command is what a message asks the identity program to do.
type Command interface {
	scale.Encodeable
	isCommand()
}

// Get returns all data associated with the identity.
type Get struct{}

// Update applies the given modifications to the identity data, in order.
type Update struct {
	Modifications []identity.Modification
}

func (Get) isCommand()    {}
func (Update) isCommand() {}

func (Get) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(0)
}

func (u Update) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(1); err != nil {
		return err
	}
	return identity.WriteModifications(encoder, u.Modifications)
}

func EncodeCommand(c Command) ([]byte, error) {
	return library.ScaleEncode(c)
}

// DecodeCommand parses one Command from the start of the payload.
func DecodeCommand(payload []byte) (Command, error) {
	r := library.NewScaleReader(payload)
	tag, err := r.Byte()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedCommand, err.Error())
	}
	var c Command
	switch tag {
	case 0:
		c = Get{}
	case 1:
		mods, err := identity.ReadModifications(r)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedCommand, err.Error())
		}
		c = Update{Modifications: mods}
	default:
		return nil, errors.Wrapf(ErrMalformedCommand, "unknown command discriminant %d", tag)
	}
	// bytes after the command are ignored, existing callers rely on it
	return c, nil
}
