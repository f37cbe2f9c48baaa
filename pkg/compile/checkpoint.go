package compile

import (
	"encoding/gob"
	"os"
)

// Checkpoint holds resume state for a compile run: which functions have
// already been compiled and linked into a bank, so a restarted run can skip
// them rather than recompiling from scratch. Adapted from a checkpoint
// tracking "search rules completed so far at a given target length" to
// "functions completed so far at a given compilation pass".
type Checkpoint struct {
	CompletedFns []string       // names of functions already compiled
	BankOf       map[string]int // function name -> assigned bank, for completed functions
	Pass         int            // current compilation pass (e.g. 0 = codegen, 1 = layout)
}

func init() {
	gob.Register(Checkpoint{})
}

// SaveCheckpoint writes ckpt to path, truncating any existing file.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ckpt)
}

// LoadCheckpoint reads a Checkpoint previously written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	return &ckpt, nil
}

// Remaining filters units down to those not yet named in ckpt.CompletedFns.
func (ckpt *Checkpoint) Remaining(units []Unit) []Unit {
	if ckpt == nil || len(ckpt.CompletedFns) == 0 {
		return units
	}
	done := make(map[string]bool, len(ckpt.CompletedFns))
	for _, name := range ckpt.CompletedFns {
		done[name] = true
	}
	out := units[:0:0]
	for _, u := range units {
		if !done[u.Name] {
			out = append(out, u)
		}
	}
	return out
}
