package identity

import (
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"persona/engine/library"
)

var ErrInvalidAccount = errors.New("invalid account")

// Store owns the single identity record and the account that created it. The host delivers
// messages one at a time; the lock is for observers such as the operator console.
type Store struct {
	data    IdentityData
	creator library.Account
	mutex   *deadlock.RWMutex
}

// NewIdentityData builds the default record for a creator and the program's own address.
func NewIdentityData(creator, program library.Account) (IdentityData, error) {
	c, err := library.CanonicalAccount(creator)
	if err != nil {
		return IdentityData{}, errors.Wrap(ErrInvalidAccount, err.Error())
	}
	p, err := library.CanonicalAccount(program)
	if err != nil {
		return IdentityData{}, errors.Wrap(ErrInvalidAccount, err.Error())
	}
	return IdentityData{
		Name:     "0x" + c,
		Socials:  "vara.go/0x" + p,
		Keywords: make([]string, 0, KeywordsCapacity),
		Region:   Earth,
	}, nil
}

// New captures the creator and stores the default record.
func New(creator, program library.Account) (*Store, error) {
	c, err := library.CanonicalAccount(creator)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAccount, err.Error())
	}
	data, err := NewIdentityData(c, program)
	if err != nil {
		return nil, err
	}
	return &Store{
		data:    data,
		creator: c,
		mutex:   &deadlock.RWMutex{},
	}, nil
}

func (s *Store) Creator() library.Account {
	return s.creator
}

// ReplaceField overwrites the field named by the modification.
func (s *Store) ReplaceField(m Modification) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	m.apply(&s.data)
}

// Apply replaces fields in list order, so a later entry for the same field wins.
func (s *Store) Apply(mods []Modification) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, m := range mods {
		m.apply(&s.data)
	}
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() IdentityData {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.data.Clone()
}
