package identity

import (
	"fmt"
	"strings"

	"github.com/centrifuge-io/go-substrate-rpc-client/v4/scale"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// KeywordsCapacity is the capacity reserved for keywords on a fresh record. It is a hint, not a limit.
const KeywordsCapacity = 32

// Region is where the identity lives. Used to offer region specific deals.
type Region uint8

const (
	// Earth is the unspecified region.
	Earth Region = iota
	Europe
	LatAm
)

var ErrUnknownRegion = errors.New("unknown region")

func (r Region) Valid() bool {
	return r <= LatAm
}

func (r Region) String() string {
	switch r {
	case Earth:
		return "earth"
	case Europe:
		return "europe"
	case LatAm:
		return "latam"
	}
	return fmt.Sprintf("region(%d)", uint8(r))
}

func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "earth":
		return Earth, nil
	case "europe":
		return Europe, nil
	case "latam":
		return LatAm, nil
	}
	return Earth, errors.Wrapf(ErrUnknownRegion, "%q", s)
}

// IdentityData is the record described by the identity program.
type IdentityData struct {
	// Name or nickname.
	Name string
	// Socials link or any additional data.
	Socials string
	// Keywords of interests.
	Keywords []string
	Region   Region
}

// Clone returns a copy that shares no memory with d.
func (d IdentityData) Clone() IdentityData {
	c := d
	c.Keywords = make([]string, 0, len(d.Keywords))
	c.Keywords = append(c.Keywords, d.Keywords...)
	return c
}

// Equal compares field contents. A nil and an empty keyword list are equal.
func (d IdentityData) Equal(o IdentityData) bool {
	return d.Name == o.Name &&
		d.Socials == o.Socials &&
		d.Region == o.Region &&
		slices.Equal(d.Keywords, o.Keywords)
}

// Modification replaces exactly one field of IdentityData.
type Modification interface {
	scale.Encodeable
	// Index is the SCALE discriminant of the variant.
	Index() byte
	apply(d *IdentityData)
}

type SetName string

type SetSocials string

// SetKeywords replaces the whole keyword list, it never appends.
type SetKeywords []string

type SetRegion Region

func (SetName) Index() byte     { return 0 }
func (SetSocials) Index() byte  { return 1 }
func (SetKeywords) Index() byte { return 2 }
func (SetRegion) Index() byte   { return 3 }

func (m SetName) apply(d *IdentityData)    { d.Name = string(m) }
func (m SetSocials) apply(d *IdentityData) { d.Socials = string(m) }
func (m SetKeywords) apply(d *IdentityData) {
	d.Keywords = slices.Clone([]string(m))
	if d.Keywords == nil {
		d.Keywords = []string{}
	}
}
func (m SetRegion) apply(d *IdentityData) { d.Region = Region(m) }
