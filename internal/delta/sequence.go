package delta

import (
	"fmt"

	"github.com/san-kum/iqcert/internal/horizon"
)

// Sequence is an ordered collection of uniquely named Delta blocks: the
// uncertainty/disturbance set attached to one uncertain system. The zero
// value is an empty, usable sequence.
type Sequence struct {
	blocks []Delta
}

func NewSequence(blocks ...Delta) (*Sequence, error) {
	s := &Sequence{}
	for _, d := range blocks {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Sequence) Len() int {
	return len(s.blocks)
}

func (s *Sequence) At(i int) Delta {
	return s.blocks[i]
}

// All returns the blocks in order. Callers must not mutate the slice.
func (s *Sequence) All() []Delta {
	return s.blocks
}

// Add appends a block, rejecting duplicate names.
func (s *Sequence) Add(d Delta) error {
	if d == nil {
		return fmt.Errorf("%w: nil delta", ErrConstruction)
	}
	if err := checkName(d.Name()); err != nil {
		return err
	}
	for _, existing := range s.blocks {
		if existing.Name() == d.Name() {
			return fmt.Errorf("%w: duplicate name %q", ErrConstruction, d.Name())
		}
	}
	s.blocks = append(s.blocks, d)
	return nil
}

// Remove deletes the block with the given name, preserving order.
func (s *Sequence) Remove(name string) error {
	for i, d := range s.blocks {
		if d.Name() == name {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// ByName returns the block with the given name.
func (s *Sequence) ByName(name string) (Delta, error) {
	for _, d := range s.blocks {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Uncertainties returns the blocks that constrain feedback operators.
func (s *Sequence) Uncertainties() []Delta {
	var out []Delta
	for _, d := range s.blocks {
		if !d.Disturbance() {
			out = append(out, d)
		}
	}
	return out
}

// Disturbances returns the blocks that constrain free input signals.
func (s *Sequence) Disturbances() []Delta {
	var out []Delta
	for _, d := range s.blocks {
		if d.Disturbance() {
			out = append(out, d)
		}
	}
	return out
}

// CommonHorizonPeriod computes the minimal refinement covering every block.
func (s *Sequence) CommonHorizonPeriod() (horizon.HorizonPeriod, error) {
	hps := make([]horizon.HorizonPeriod, 0, len(s.blocks))
	for _, d := range s.blocks {
		hps = append(hps, d.HorizonPeriod())
	}
	return horizon.Common(hps...)
}

// MatchHorizonPeriod re-expands every block onto hp, returning a new
// sequence.
func (s *Sequence) MatchHorizonPeriod(hp horizon.HorizonPeriod) (*Sequence, error) {
	out := &Sequence{blocks: make([]Delta, 0, len(s.blocks))}
	for _, d := range s.blocks {
		nd, err := d.MatchHorizonPeriod(hp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name(), err)
		}
		out.blocks = append(out.blocks, nd)
	}
	return out, nil
}

// Validate checks every block and name uniqueness.
func (s *Sequence) Validate() error {
	seen := make(map[string]bool, len(s.blocks))
	for _, d := range s.blocks {
		if seen[d.Name()] {
			return fmt.Errorf("%w: duplicate name %q", ErrConstruction, d.Name())
		}
		seen[d.Name()] = true
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Name(), err)
		}
	}
	return nil
}
