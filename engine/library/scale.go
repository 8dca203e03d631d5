package library

import (
	"bytes"
	"math/big"
	"unicode/utf8"

	"github.com/centrifuge-io/go-substrate-rpc-client/v4/scale"
	"github.com/pkg/errors"
)

// ErrMalformedPayload is returned for any SCALE input that does not match the expected shape.
var ErrMalformedPayload = errors.New("malformed SCALE payload")

// ScaleReader decodes SCALE values from a bounded payload. Lengths are checked against the bytes
// still unread so a hostile prefix cannot force a large allocation.
type ScaleReader struct {
	buf *bytes.Reader
	dec *scale.Decoder
}

func NewScaleReader(payload []byte) *ScaleReader {
	buf := bytes.NewReader(payload)
	return &ScaleReader{buf: buf, dec: scale.NewDecoder(buf)}
}

// Byte reads a single discriminant or fixed width byte.
func (r *ScaleReader) Byte() (byte, error) {
	if r.buf.Len() == 0 {
		return 0, errors.Wrap(ErrMalformedPayload, "unexpected end of input")
	}
	b, err := r.dec.ReadOneByte()
	if err != nil {
		return 0, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return b, nil
}

// Length reads a compact length prefix.
func (r *ScaleReader) Length() (int, error) {
	if r.buf.Len() == 0 {
		return 0, errors.Wrap(ErrMalformedPayload, "missing length prefix")
	}
	n, err := r.dec.DecodeUintCompact()
	if err != nil {
		return 0, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	if !n.IsInt64() || n.Int64() > int64(r.buf.Len()) {
		return 0, errors.Wrapf(ErrMalformedPayload, "length %s exceeds the %d remaining bytes", n.String(), r.buf.Len())
	}
	return int(n.Int64()), nil
}

// Text reads a length prefixed UTF-8 string.
func (r *ScaleReader) Text() (string, error) {
	n, err := r.Length()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if err := r.dec.Read(b); err != nil {
			return "", errors.Wrap(ErrMalformedPayload, err.Error())
		}
	}
	if !utf8.Valid(b) {
		return "", errors.Wrap(ErrMalformedPayload, "text is not valid utf-8")
	}
	return string(b), nil
}

// Texts reads a length prefixed sequence of strings.
func (r *ScaleReader) Texts() ([]string, error) {
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.Text()
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		out = append(out, s)
	}
	return out, nil
}

// Finish fails if anything is left unread.
func (r *ScaleReader) Finish() error {
	if r.buf.Len() != 0 {
		return errors.Wrapf(ErrMalformedPayload, "%d trailing bytes", r.buf.Len())
	}
	return nil
}

// EncodeText writes a length prefixed string.
func EncodeText(encoder scale.Encoder, s string) error {
	if err := EncodeLength(encoder, len(s)); err != nil {
		return err
	}
	return encoder.Write([]byte(s))
}

// EncodeTexts writes a length prefixed sequence of strings.
func EncodeTexts(encoder scale.Encoder, list []string) error {
	if err := EncodeLength(encoder, len(list)); err != nil {
		return err
	}
	for _, s := range list {
		if err := EncodeText(encoder, s); err != nil {
			return err
		}
	}
	return nil
}

func EncodeLength(encoder scale.Encoder, n int) error {
	return encoder.EncodeUintCompact(*big.NewInt(int64(n)))
}

// ScaleEncode runs a SCALE encoding into a fresh buffer.
func ScaleEncode(value scale.Encodeable) ([]byte, error) {
	var buf bytes.Buffer
	if err := value.Encode(*scale.NewEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
