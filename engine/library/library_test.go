package library

import (
	"bytes"
	"strings"
	"testing"

	"github.com/centrifuge-io/go-substrate-rpc-client/v4/scale"
	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
)

func TestStackOrderAndGrowth(t *testing.T) {
	s := NewStack[int](2)
	for i := 0; i < 5; i++ {
		s.Push(i)
	}
	if v, _ := s.Pop(); v != 0 {
		t.Fatalf("first pop = %d", v)
	}
	s.Push(5)
	s.Push(6)
	for want := 1; want <= 6; want++ {
		v, ok := s.Pop()
		if !ok || v != want {
			t.Fatalf("pop = %d %v, want %d", v, ok, want)
		}
	}
	if _, ok := s.Pop(); ok || s.Len() != 0 {
		t.Fatal("stack should be empty")
	}
}

func TestCanonicalAccount(t *testing.T) {
	upper := "0x" + strings.Repeat("AB", 32)
	got, err := CanonicalAccount(upper)
	if err != nil {
		t.Fatal(err)
	}
	if got != strings.Repeat("ab", 32) {
		t.Fatalf("canonical = %s", got)
	}
	for _, bad := range []string{"", "zz", strings.Repeat("ab", 31), strings.Repeat("ab", 33)} {
		if _, err := CanonicalAccount(bad); err == nil {
			t.Fatalf("accepted %q", bad)
		}
	}
}

func TestSha256Sum(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if Sha256Sum("") != empty || Sha256Sum([]byte{}) != empty {
		t.Fatal("unexpected digest of empty input")
	}
}

func encode(t *testing.T, f func(scale.Encoder) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := f(*scale.NewEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScaleTexts(t *testing.T) {
	b := encode(t, func(e scale.Encoder) error { return EncodeTexts(e, []string{"a", "bc"}) })
	if !bytes.Equal(b, []byte{0x08, 0x04, 'a', 0x08, 'b', 'c'}) {
		t.Fatalf("encoded %x", b)
	}
	r := NewScaleReader(b)
	list, err := r.Texts()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0] != "a" || list[1] != "bc" {
		t.Fatalf("decoded %v", list)
	}
	if err := r.Finish(); err != nil {
		t.Fatal(err)
	}
}

func TestScaleReaderRejects(t *testing.T) {
	for name, read := range map[string]func() error{
		"empty byte": func() error {
			_, err := NewScaleReader(nil).Byte()
			return err
		},
		"missing length": func() error {
			_, err := NewScaleReader(nil).Length()
			return err
		},
		"length past end": func() error {
			_, err := NewScaleReader([]byte{0x08, 'a'}).Text()
			return err
		},
		"huge sequence": func() error {
			_, err := NewScaleReader([]byte{0x03, 0xff, 0xff, 0xff, 0xff}).Texts()
			return err
		},
		"invalid utf8": func() error {
			_, err := NewScaleReader([]byte{0x04, 0xff}).Text()
			return err
		},
		"trailing": func() error {
			r := NewScaleReader([]byte{0x00, 0x00})
			if _, err := r.Byte(); err != nil {
				return nil
			}
			return r.Finish()
		},
	} {
		if err := read(); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%s: expected ErrMalformedPayload, got %v", name, err)
		}
	}
}

func TestTags(t *testing.T) {
	account := strings.Repeat("0e", 32)
	e := nostr.Event{Tags: nostr.Tags{
		{"e", "root-id", "", "root"},
		{"e", "reply-id", "", "reply"},
		{"p", account},
		{"value", "0"},
	}}
	if id, ok := GetFirstReply(e); !ok || id != "reply-id" {
		t.Fatalf("reply = %q", id)
	}
	if v, ok := GetFirstTag(e, "value"); !ok || v != "0" {
		t.Fatalf("value = %q", v)
	}
	if _, ok := GetFirstTag(e, "d"); ok {
		t.Fatal("found a tag that is not there")
	}
	if !IsAddressedTo(e, account) || IsAddressedTo(e, strings.Repeat("11", 32)) {
		t.Fatal("p tag matching is wrong")
	}
}
