package identity

import (
	"io"

	"github.com/centrifuge-io/go-substrate-rpc-client/v4/scale"
)

func newEncoder(w io.Writer) *scale.Encoder {
	return scale.NewEncoder(w)
}
