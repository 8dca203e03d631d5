package eventconductor

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"persona/state/identity"
)

var (
	creator = strings.Repeat("c1", 32)
	other   = strings.Repeat("0e", 32)
	program = strings.Repeat("9a", 32)
)

type reply struct {
	payload []byte
	value   uint64
}

type fakeRuntime struct {
	source   string
	payload  []byte
	replies  []reply
	replyErr error
}

func (f *fakeRuntime) MessageID() string { return "msg" }
func (f *fakeRuntime) Source() string    { return f.source }
func (f *fakeRuntime) ProgramID() string { return program }
func (f *fakeRuntime) Payload() []byte   { return f.payload }
func (f *fakeRuntime) Reply(payload []byte, value uint64) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.replies = append(f.replies, reply{payload: payload, value: value})
	return nil
}

func initialized(t *testing.T) *Conductor {
	t.Helper()
	c := New()
	if err := c.Init(context.Background(), &fakeRuntime{source: creator}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

func send(t *testing.T, c *Conductor, source string, cmd Command) *fakeRuntime {
	t.Helper()
	payload, err := EncodeCommand(cmd)
	if err != nil {
		t.Fatalf("encode command: %v", err)
	}
	rt := &fakeRuntime{source: source, payload: payload}
	if err := c.Handle(context.Background(), rt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	return rt
}

func get(t *testing.T, c *Conductor) identity.IdentityData {
	t.Helper()
	rt := send(t, c, other, Get{})
	if len(rt.replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(rt.replies))
	}
	if rt.replies[0].value != 0 {
		t.Fatalf("expected reply value 0, got %d", rt.replies[0].value)
	}
	d, err := identity.DecodeIdentityData(rt.replies[0].payload)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return d
}

func TestGetAfterInitReturnsDefaults(t *testing.T) {
	c := initialized(t)
	d := get(t, c)
	want := identity.IdentityData{
		Name:    "0x" + creator,
		Socials: "vara.go/0x" + program,
		Region:  identity.Earth,
	}
	if !d.Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, d)
	}
}

func TestUpdateKeywordsReplaces(t *testing.T) {
	c := initialized(t)
	send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetKeywords{"a", "b"}}})
	send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetKeywords{"c"}}})

	d := get(t, c)
	if len(d.Keywords) != 1 || d.Keywords[0] != "c" {
		t.Fatalf("expected [c], got %v", d.Keywords)
	}
}

func TestUpdateOrderWithinBatch(t *testing.T) {
	c := initialized(t)
	rt := send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetName("x"), identity.SetName("y")}})
	if len(rt.replies) != 0 {
		t.Fatalf("expected no reply to update, got %d", len(rt.replies))
	}
	if d := get(t, c); d.Name != "y" {
		t.Fatalf("expected name y, got %s", d.Name)
	}
}

func TestUpdateFieldIndependence(t *testing.T) {
	c := initialized(t)
	send(t, c, creator, Update{Modifications: []identity.Modification{
		identity.SetName("n"), identity.SetKeywords{"k"}, identity.SetRegion(identity.Europe),
	}})
	before := get(t, c)
	send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetSocials("s")}})
	after := get(t, c)

	before.Socials = "s"
	if !after.Equal(before) {
		t.Fatalf("expected %+v, got %+v", before, after)
	}
}

func TestUpdateFromAnyCallerIsAccepted(t *testing.T) {
	c := initialized(t)
	send(t, c, other, Update{Modifications: []identity.Modification{identity.SetName("public board")}})
	if d := get(t, c); d.Name != "public board" {
		t.Fatalf("expected update from non-creator to apply, got %s", d.Name)
	}
	if got, _ := c.Creator(); got != creator {
		t.Fatalf("expected creator to stay %s, got %s", creator, got)
	}
}

func TestGetIsIdempotent(t *testing.T) {
	c := initialized(t)
	send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetKeywords{"x", "y"}}})
	first := send(t, c, other, Get{}).replies[0].payload
	second := send(t, c, other, Get{}).replies[0].payload
	if !bytes.Equal(first, second) {
		t.Fatalf("expected identical snapshots, got %x and %x", first, second)
	}
}

func TestMalformedCommandLeavesRecordUnchanged(t *testing.T) {
	c := initialized(t)
	send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetName("kept")}})
	before, _ := c.Snapshot()
	beforeBytes, _ := identity.EncodeIdentityData(before)

	valid, err := EncodeCommand(Update{Modifications: []identity.Modification{identity.SetName("lost"), identity.SetRegion(identity.LatAm)}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	payloads := map[string][]byte{
		"empty":           nil,
		"unknown command": {0x02},
		"truncated":       valid[:len(valid)-1],
		"bad variant":     {0x01, 0x04, 0x09},
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			rt := &fakeRuntime{source: creator, payload: payload}
			err := c.Handle(context.Background(), rt)
			if !errors.Is(err, ErrMalformedCommand) {
				t.Fatalf("expected ErrMalformedCommand, got %v", err)
			}
			if len(rt.replies) != 0 {
				t.Fatalf("expected no reply, got %d", len(rt.replies))
			}
			after, _ := c.Snapshot()
			afterBytes, _ := identity.EncodeIdentityData(after)
			if !bytes.Equal(beforeBytes, afterBytes) {
				t.Fatalf("expected record unchanged, got %+v", after)
			}
		})
	}
}

func TestReplyFailureAbortsGet(t *testing.T) {
	c := initialized(t)
	payload, _ := EncodeCommand(Get{})
	rt := &fakeRuntime{source: other, payload: payload, replyErr: errors.New("relay rejected")}
	err := c.Handle(context.Background(), rt)
	if !errors.Is(err, ErrReplyFailed) {
		t.Fatalf("expected ErrReplyFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "relay rejected") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestHandleBeforeInit(t *testing.T) {
	c := New()
	payload, _ := EncodeCommand(Get{})
	err := c.Handle(context.Background(), &fakeRuntime{source: creator, payload: payload})
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, ok := c.Snapshot(); ok {
		t.Fatal("expected no snapshot before init")
	}
}

func TestSecondInitIsRejected(t *testing.T) {
	c := initialized(t)
	send(t, c, creator, Update{Modifications: []identity.Modification{identity.SetName("mine")}})

	err := c.Init(context.Background(), &fakeRuntime{source: other})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	if got, _ := c.Creator(); got != creator {
		t.Fatalf("expected creator %s, got %s", creator, got)
	}
	if d := get(t, c); d.Name != "mine" {
		t.Fatalf("expected record to survive re-init, got %s", d.Name)
	}
}

func TestInitRejectsInvalidSource(t *testing.T) {
	c := New()
	err := c.Init(context.Background(), &fakeRuntime{source: "not-an-account"})
	if !errors.Is(err, identity.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
	if _, ok := c.Creator(); ok {
		t.Fatal("expected failed init to leave the program uninitialized")
	}
}

func TestGetWithTrailingBytesReplies(t *testing.T) {
	c := initialized(t)
	rt := &fakeRuntime{source: other, payload: []byte{0x00, 0xff}}
	if err := c.Handle(context.Background(), rt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(rt.replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(rt.replies))
	}
	data, err := identity.DecodeIdentityData(rt.replies[0].payload)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if data.Name != "0x"+creator {
		t.Fatalf("unexpected record %+v", data)
	}
}
