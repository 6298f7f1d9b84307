package sparse

import (
	"fmt"
	"sort"
)

// maxSpeakers bounds the speaker index so a (component, speaker) pair packs
// into a single uint32 key: component in the high 24 bits, speaker in the
// low 8. Components are therefore bounded by 1<<24.
const maxSpeakers = 1 << 8

// Matrix is a row-sparse responsibility matrix. Row t holds the probability
// masses assigned at tick t to (component, speaker) pairs. The zero value is
// not usable; construct with New.
type Matrix struct {
	rows     []row
	speakers int
}

type row struct {
	keys []uint32
	mass []float64
}

func packKey(component, speaker int) uint32 {
	return uint32(component)<<8 | uint32(speaker)
}

func keyComponent(k uint32) int { return int(k >> 8) }
func keySpeaker(k uint32) int   { return int(k & 0xFF) }

// New creates an empty matrix with the given number of rows (ticks) and
// speaker slots. Speakers must fit the packed key layout.
func New(rows, speakers int) (*Matrix, error) {
	if rows < 0 {
		return nil, fmt.Errorf("sparse: negative row count %d", rows)
	}
	if speakers < 1 || speakers > maxSpeakers {
		return nil, fmt.Errorf("sparse: speaker slots %d out of range [1,%d]", speakers, maxSpeakers)
	}
	return &Matrix{
		rows:     make([]row, rows),
		speakers: speakers,
	}, nil
}

// Rows returns the number of rows (ticks).
func (m *Matrix) Rows() int { return len(m.rows) }

// Speakers returns the number of speaker slots.
func (m *Matrix) Speakers() int { return m.speakers }

// NNZ returns the total number of stored entries.
func (m *Matrix) NNZ() int {
	n := 0
	for i := range m.rows {
		n += len(m.rows[i].keys)
	}
	return n
}

// RowNNZ returns the number of stored entries in row t.
func (m *Matrix) RowNNZ(t int) int { return len(m.rows[t].keys) }

// find returns the slice index of key k in row t and whether it exists.
func (m *Matrix) find(t int, k uint32) (int, bool) {
	r := &m.rows[t]
	i := sort.Search(len(r.keys), func(i int) bool { return r.keys[i] >= k })
	return i, i < len(r.keys) && r.keys[i] == k
}

// Get returns the mass stored for (t, component, speaker), zero if absent.
func (m *Matrix) Get(t, component, speaker int) float64 {
	i, ok := m.find(t, packKey(component, speaker))
	if !ok {
		return 0
	}
	return m.rows[t].mass[i]
}

// Set stores mass for (t, component, speaker). A mass of zero or less
// removes the entry; explicit zeros are never kept.
func (m *Matrix) Set(t, component, speaker int, mass float64) {
	k := packKey(component, speaker)
	r := &m.rows[t]
	i, ok := m.find(t, k)
	switch {
	case ok && mass > 0:
		r.mass[i] = mass
	case ok:
		r.keys = append(r.keys[:i], r.keys[i+1:]...)
		r.mass = append(r.mass[:i], r.mass[i+1:]...)
	case mass > 0:
		r.keys = append(r.keys, 0)
		r.mass = append(r.mass, 0)
		copy(r.keys[i+1:], r.keys[i:])
		copy(r.mass[i+1:], r.mass[i:])
		r.keys[i] = k
		r.mass[i] = mass
	}
}

// RowSum returns the total mass in row t.
func (m *Matrix) RowSum(t int) float64 {
	s := 0.0
	for _, v := range m.rows[t].mass {
		s += v
	}
	return s
}

// NormalizeRow scales row t to unit mass. It reports false, leaving the row
// untouched, when the row is empty or has zero total mass.
func (m *Matrix) NormalizeRow(t int) bool {
	sum := m.RowSum(t)
	if sum <= 0 {
		return false
	}
	inv := 1 / sum
	for i := range m.rows[t].mass {
		m.rows[t].mass[i] *= inv
	}
	return true
}

// Prune removes all entries with mass below thr and returns the number of
// removed entries. Pruned mass is dropped, not redistributed; rows are left
// unnormalized and callers renormalize afterwards.
func (m *Matrix) Prune(thr float64) int {
	removed := 0
	for t := range m.rows {
		r := &m.rows[t]
		w := 0
		for i, v := range r.mass {
			if v >= thr {
				r.keys[w] = r.keys[i]
				r.mass[w] = v
				w++
			}
		}
		removed += len(r.keys) - w
		r.keys = r.keys[:w]
		r.mass = r.mass[:w]
	}
	return removed
}

// IterRow calls fn for every entry in row t in (component, speaker) key
// order. Entries arrive grouped by component.
func (m *Matrix) IterRow(t int, fn func(component, speaker int, mass float64)) {
	r := &m.rows[t]
	for i, k := range r.keys {
		fn(keyComponent(k), keySpeaker(k), r.mass[i])
	}
}

// IterComponents calls fn once per distinct component in row t with the
// component's total mass (summed over speakers).
func (m *Matrix) IterComponents(t int, fn func(component int, mass float64)) {
	r := &m.rows[t]
	i := 0
	for i < len(r.keys) {
		c := keyComponent(r.keys[i])
		sum := 0.0
		for i < len(r.keys) && keyComponent(r.keys[i]) == c {
			sum += r.mass[i]
			i++
		}
		fn(c, sum)
	}
}

// SpeakerMarginal accumulates row t's mass per speaker slot into dst, which
// must have length Speakers(). dst is zeroed first and returned.
func (m *Matrix) SpeakerMarginal(t int, dst []float64) []float64 {
	for i := range dst {
		dst[i] = 0
	}
	r := &m.rows[t]
	for i, k := range r.keys {
		dst[keySpeaker(k)] += r.mass[i]
	}
	return dst
}

// SetRowProduct replaces row t with the outer product of a component
// distribution and a speaker distribution, dropping products below thr.
// comps must be strictly increasing component indices with matching
// compMass; speakerMass must have length Speakers(). The row is left
// normalized when any entry survives; it reports the surviving entry count.
func (m *Matrix) SetRowProduct(t int, comps []int, compMass []float64, speakerMass []float64, thr float64) int {
	r := &m.rows[t]
	r.keys = r.keys[:0]
	r.mass = r.mass[:0]
	for i, c := range comps {
		cm := compMass[i]
		if cm <= 0 {
			continue
		}
		for s, sm := range speakerMass {
			v := cm * sm
			if v >= thr && v > 0 {
				r.keys = append(r.keys, packKey(c, s))
				r.mass = append(r.mass, v)
			}
		}
	}
	m.NormalizeRow(t)
	return len(r.keys)
}
