// Package types holds the shared data model used across the scanner:
// signatures, scan events, results, and metrics. It has no behavior of its
// own beyond small invariant-preserving helpers.
package types

import "fmt"

// Signature is a single detection pattern with an id and optional per-pattern
// CPU budget. Immutable once it has been added to a SignatureSet that has
// been built.
type Signature struct {
	ID int64

	// Pattern is the regular expression to match against file content.
	Pattern string

	// Anchored signatures are only evaluated against the first chunk of a
	// file (patterns like ^MZ that only make sense relative to file start).
	Anchored bool

	// TimeoutMS overrides the matcher's default per-pattern CPU budget for
	// this signature. Zero means "use the matcher default".
	TimeoutMS uint32

	// Keywords are literal substrings used by the Aho-Corasick prefilter to
	// skip this signature's regex entirely when none of them appear in a
	// chunk. A signature with no keywords is always eligible.
	Keywords []string
}

// SignatureSet is an indexed, ordered collection of Signatures. It supports
// removal prior to Build(); afterwards it is shared read-only across
// workers for the lifetime of one scan.
type SignatureSet struct {
	byID  map[int64]*Signature
	order []int64
	built bool
}

// NewSignatureSet creates an empty, mutable SignatureSet.
func NewSignatureSet() *SignatureSet {
	return &SignatureSet{byID: make(map[int64]*Signature)}
}

// Add inserts a signature. Returns an error if called after Build or if the
// id is already present.
func (s *SignatureSet) Add(sig *Signature) error {
	if s.built {
		return fmt.Errorf("signature set: cannot Add after Build")
	}
	if _, exists := s.byID[sig.ID]; exists {
		return fmt.Errorf("signature set: duplicate signature id %d", sig.ID)
	}
	s.byID[sig.ID] = sig
	s.order = append(s.order, sig.ID)
	return nil
}

// Remove deletes a signature by id prior to matcher construction.
func (s *SignatureSet) Remove(id int64) error {
	if s.built {
		return fmt.Errorf("signature set: cannot Remove after Build")
	}
	if _, exists := s.byID[id]; !exists {
		return fmt.Errorf("signature set: no signature with id %d", id)
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Build freezes the set against further mutation. It is idempotent.
func (s *SignatureSet) Build() {
	s.built = true
}

// Len returns the number of signatures currently in the set.
func (s *SignatureSet) Len() int {
	return len(s.order)
}

// Signatures returns the signatures in insertion order. The returned slice
// must not be mutated by callers.
func (s *SignatureSet) Signatures() []*Signature {
	out := make([]*Signature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the signature with the given id, if present.
func (s *SignatureSet) Get(id int64) (*Signature, bool) {
	sig, ok := s.byID[id]
	return sig, ok
}
