package eventcatcher

import (
	"strings"

	"persona/engine/actors"
	"persona/engine/library"
)

// journal is the order in which this engine first delivered messages to the program. Event
// timestamps are chosen by their signers, so after a restart stored events are replayed in journal
// order and only unknown events fall back to timestamp order.
type journal struct {
	program library.Account
	ids     []library.Sha256
	index   map[library.Sha256]int
}

func loadJournal(program library.Account) *journal {
	j := &journal{program: program, index: make(map[library.Sha256]int)}
	if b, ok := actors.Open("eventcatcher", program); ok {
		for _, id := range strings.Fields(string(b)) {
			j.add(id)
		}
	}
	return j
}

func (j *journal) add(id library.Sha256) bool {
	if _, ok := j.index[id]; ok {
		return false
	}
	j.index[id] = len(j.ids)
	j.ids = append(j.ids, id)
	return true
}

// Position is where id was delivered, false if this engine never delivered it.
func (j *journal) Position(id library.Sha256) (int, bool) {
	p, ok := j.index[id]
	return p, ok
}

// Record appends id and rewrites the journal file.
func (j *journal) Record(id library.Sha256) error {
	if !j.add(id) {
		return nil
	}
	return actors.Write("eventcatcher", j.program, []byte(strings.Join(j.ids, "\n")+"\n"))
}
