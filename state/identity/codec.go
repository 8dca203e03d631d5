package identity

import (
	"github.com/centrifuge-io/go-substrate-rpc-client/v4/scale"
	"github.com/pkg/errors"
	"persona/engine/library"
)

// SCALE layout, matching parity-scale-codec for the program's types:
//
//	Region        u8 discriminant
//	Modification  u8 discriminant + variant field
//	IdentityData  name ++ socials ++ keywords ++ region

func (r Region) Encode(encoder scale.Encoder) error {
	if !r.Valid() {
		return errors.Wrapf(ErrUnknownRegion, "%d", uint8(r))
	}
	return encoder.PushByte(byte(r))
}

func (d IdentityData) Encode(encoder scale.Encoder) error {
	if err := library.EncodeText(encoder, d.Name); err != nil {
		return err
	}
	if err := library.EncodeText(encoder, d.Socials); err != nil {
		return err
	}
	if err := library.EncodeTexts(encoder, d.Keywords); err != nil {
		return err
	}
	return d.Region.Encode(encoder)
}

func (m SetName) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(m.Index()); err != nil {
		return err
	}
	return library.EncodeText(encoder, string(m))
}

func (m SetSocials) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(m.Index()); err != nil {
		return err
	}
	return library.EncodeText(encoder, string(m))
}

func (m SetKeywords) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(m.Index()); err != nil {
		return err
	}
	return library.EncodeTexts(encoder, m)
}

func (m SetRegion) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(m.Index()); err != nil {
		return err
	}
	return Region(m).Encode(encoder)
}

// Hash is the sha256 of the record's SCALE encoding.
func (d IdentityData) Hash() library.Sha256 {
	b, err := library.ScaleEncode(d)
	if err != nil {
		library.LogCLI(err, 1)
		return ""
	}
	return library.Sha256Sum(b)
}

func EncodeIdentityData(d IdentityData) ([]byte, error) {
	return library.ScaleEncode(d)
}

// DecodeIdentityData decodes exactly one record; trailing bytes are an error.
func DecodeIdentityData(payload []byte) (IdentityData, error) {
	r := library.NewScaleReader(payload)
	d, err := ReadIdentityData(r)
	if err != nil {
		return IdentityData{}, err
	}
	if err := r.Finish(); err != nil {
		return IdentityData{}, err
	}
	return d, nil
}

func ReadIdentityData(r *library.ScaleReader) (d IdentityData, err error) {
	if d.Name, err = r.Text(); err != nil {
		return d, errors.Wrap(err, "name")
	}
	if d.Socials, err = r.Text(); err != nil {
		return d, errors.Wrap(err, "socials")
	}
	if d.Keywords, err = r.Texts(); err != nil {
		return d, errors.Wrap(err, "keywords")
	}
	if d.Region, err = ReadRegion(r); err != nil {
		return d, errors.Wrap(err, "region")
	}
	return d, nil
}

func ReadRegion(r *library.ScaleReader) (Region, error) {
	b, err := r.Byte()
	if err != nil {
		return Earth, err
	}
	region := Region(b)
	if !region.Valid() {
		return Earth, errors.Wrapf(library.ErrMalformedPayload, "unknown region discriminant %d", b)
	}
	return region, nil
}

// ReadModification decodes one tagged modification.
func ReadModification(r *library.ScaleReader) (Modification, error) {
	tag, err := r.Byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		s, err := r.Text()
		return SetName(s), err
	case 1:
		s, err := r.Text()
		return SetSocials(s), err
	case 2:
		list, err := r.Texts()
		return SetKeywords(list), err
	case 3:
		region, err := ReadRegion(r)
		return SetRegion(region), err
	}
	return nil, errors.Wrapf(library.ErrMalformedPayload, "unknown modification discriminant %d", tag)
}

// ReadModifications decodes a length prefixed list of modifications.
func ReadModifications(r *library.ScaleReader) ([]Modification, error) {
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	mods := make([]Modification, 0, n)
	for i := 0; i < n; i++ {
		m, err := ReadModification(r)
		if err != nil {
			return nil, errors.Wrapf(err, "modification %d", i)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// WriteModifications encodes a length prefixed list of modifications.
func WriteModifications(encoder scale.Encoder, mods []Modification) error {
	if err := library.EncodeLength(encoder, len(mods)); err != nil {
		return err
	}
	for _, m := range mods {
		if err := m.Encode(encoder); err != nil {
			return err
		}
	}
	return nil
}
