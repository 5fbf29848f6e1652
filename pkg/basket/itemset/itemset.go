// Package itemset provides the canonical, order-independent representation
// of a set of item labels.
package itemset

import (
	"sort"
	"strings"
)

// keySep separates labels inside a Key. It cannot appear in tokenized text.
const keySep = "\x1f"

// Set is a sorted, duplicate-free slice of item labels.
// Two sets holding the same items are always equal element-wise.
type Set []string

// New builds a canonical Set from arbitrary labels. Empty labels are dropped.
func New(items ...string) Set {
	out := make(Set, 0, len(items))
	for _, it := range items {
		if it != "" {
			out = append(out, it)
		}
	}
	sort.Strings(out)
	return compact(out)
}

func compact(s Set) Set {
	if len(s) < 2 {
		return s
	}
	w := 1
	for r := 1; r < len(s); r++ {
		if s[r] != s[w-1] {
			s[w] = s[r]
			w++
		}
	}
	return s[:w]
}

// Key returns a string usable as a map key for set identity.
func (s Set) Key() string {
	return strings.Join(s, keySep)
}

// Label renders the set the way tables show it: "a,b".
func (s Set) Label() string {
	return strings.Join(s, ",")
}

// Len returns the number of items.
func (s Set) Len() int { return len(s) }

// Contains reports whether item is a member.
func (s Set) Contains(item string) bool {
	i := sort.SearchStrings(s, item)
	return i < len(s) && s[i] == item
}

// Disjoint reports whether s and o share no items.
func (s Set) Disjoint(o Set) bool {
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] == o[j]:
			return false
		case s[i] < o[j]:
			i++
		default:
			j++
		}
	}
	return true
}

// Union merges two canonical sets.
func (s Set) Union(o Set) Set {
	out := make(Set, 0, len(s)+len(o))
	i, j := 0, 0
	for i < len(s) || j < len(o) {
		switch {
		case j >= len(o) || (i < len(s) && s[i] < o[j]):
			out = append(out, s[i])
			i++
		case i >= len(s) || o[j] < s[i]:
			out = append(out, o[j])
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	return out
}

// Split partitions s by a bitmask over its positions: bit i set puts s[i]
// into the first result. Both results stay canonical.
func (s Set) Split(mask uint64) (in, out Set) {
	in = make(Set, 0, len(s))
	out = make(Set, 0, len(s))
	for i, it := range s {
		if mask&(1<<uint(i)) != 0 {
			in = append(in, it)
		} else {
			out = append(out, it)
		}
	}
	return in, out
}

// Equal reports element-wise equality.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Less orders sets by size, then lexicographically by label.
func Less(a, b Set) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
