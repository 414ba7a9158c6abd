package landmark

import (
	"encoding/json"
	"fmt"
)

// Set is a fixed 50-slot landmark set. A slot is either defined or empty;
// empty slots mean "cannot compute" for every consumer.
type Set struct {
	joints  [Count]Joint
	defined [Count]bool
}

// FromRaw builds a set from estimator output. Joints beyond RawCount are ignored.
func FromRaw(raw []Joint) Set {
	var s Set
	for i, j := range raw {
		if i >= RawCount {
			break
		}
		s.Put(i, j)
	}
	return s
}

// Get returns the joint at slot i and whether the slot is defined.
// A nil set has no defined slots.
func (s *Set) Get(i int) (Joint, bool) {
	if s == nil || !Valid(i) || !s.defined[i] {
		return Joint{}, false
	}
	return s.joints[i], true
}

// Present returns the joint at slot i when it is defined and meets threshold.
func (s *Set) Present(i int, threshold float64) (Joint, bool) {
	j, ok := s.Get(i)
	if !ok || !j.Present(threshold) {
		return Joint{}, false
	}
	return j, true
}

// Put defines slot i. Out-of-range indices are ignored.
func (s *Set) Put(i int, j Joint) {
	if !Valid(i) {
		return
	}
	s.joints[i] = j
	s.defined[i] = true
}

// Clear empties slot i.
func (s *Set) Clear(i int) {
	if !Valid(i) {
		return
	}
	s.joints[i] = Joint{}
	s.defined[i] = false
}

// Defined reports whether slot i holds a joint.
func (s *Set) Defined(i int) bool {
	return s != nil && Valid(i) && s.defined[i]
}

// Len returns the number of defined slots.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, d := range s.defined {
		if d {
			n++
		}
	}
	return n
}

// Empty reports whether no slot is defined.
func (s *Set) Empty() bool { return s.Len() == 0 }

// MarshalJSON encodes the set as a 50-element array with null for empty slots.
func (s Set) MarshalJSON() ([]byte, error) {
	out := make([]*Joint, Count)
	for i := range s.joints {
		if s.defined[i] {
			j := s.joints[i]
			out[i] = &j
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an array of up to 50 joints where null marks an empty slot.
func (s *Set) UnmarshalJSON(b []byte) error {
	var in []*Joint
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if len(in) > Count {
		return fmt.Errorf("%w: %d slots", ErrTooManySlots, len(in))
	}
	*s = Set{}
	for i, j := range in {
		if j != nil {
			s.Put(i, *j)
		}
	}
	return nil
}
