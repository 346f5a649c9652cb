// Package sourcemap decodes, composes and encodes revision 3 source maps.
//
// Mappings are kept decoded as one segment list per generated line. A nil
// Mappings value means "no position metadata"; an empty but non-nil value
// means "known to map nothing".
package sourcemap

import (
	"sort"
	"strings"
)

// Segment maps a generated column to a position in a source.
type Segment struct {
	GenColumn  int
	Source     int
	OrigLine   int
	OrigColumn int
}

// Mappings holds the segments of each generated line, indexed by line.
type Mappings [][]Segment

// Identity maps every line of src onto itself in source 0.
func Identity(src string) Mappings {
	lines := strings.Count(src, "\n") + 1
	m := make(Mappings, lines)
	for i := range m {
		m[i] = []Segment{{OrigLine: i}}
	}
	return m
}

// Clone returns a deep copy. Clone of nil is nil.
func (m Mappings) Clone() Mappings {
	if m == nil {
		return nil
	}
	out := make(Mappings, len(m))
	for i, segs := range m {
		if segs != nil {
			out[i] = append([]Segment(nil), segs...)
		}
	}
	return out
}

// Shift prepends n unmapped generated lines. Shift of nil is nil.
func (m Mappings) Shift(n int) Mappings {
	if m == nil {
		return nil
	}
	out := make(Mappings, n, n+len(m))
	return append(out, m.Clone()...)
}

// Compose maps outer, whose original positions are generated positions of
// inner, straight through to inner's sources. Segments that land on an
// unmapped inner position are dropped. If inner is nil the result is nil.
func Compose(outer, inner Mappings) Mappings {
	if inner == nil || outer == nil {
		return nil
	}
	out := make(Mappings, len(outer))
	for line, segs := range outer {
		for _, seg := range segs {
			if seg.OrigLine < 0 || seg.OrigLine >= len(inner) {
				continue
			}
			target, ok := lookup(inner[seg.OrigLine], seg.OrigColumn)
			if !ok {
				continue
			}
			out[line] = append(out[line], Segment{
				GenColumn:  seg.GenColumn,
				Source:     target.Source,
				OrigLine:   target.OrigLine,
				OrigColumn: target.OrigColumn + (seg.OrigColumn - target.GenColumn),
			})
		}
	}
	return out
}

// IsLineMap reports whether every mapped line of m is a single segment from
// column 0 to column 0, as Identity and Shift produce. Such a map moves
// whole lines and leaves their text unchanged.
func (m Mappings) IsLineMap() bool {
	if m == nil {
		return false
	}
	for _, segs := range m {
		switch len(segs) {
		case 0:
		case 1:
			if segs[0].GenColumn != 0 || segs[0].OrigColumn != 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ComposeLines is Compose for a line map outer: each generated line takes
// every segment of the inner line it was moved from, so column detail in
// inner survives. If inner is nil the result is nil.
func ComposeLines(outer, inner Mappings) Mappings {
	if inner == nil || outer == nil {
		return nil
	}
	out := make(Mappings, len(outer))
	for line, segs := range outer {
		if len(segs) == 0 {
			continue
		}
		from := segs[0].OrigLine
		if from < 0 || from >= len(inner) || len(inner[from]) == 0 {
			continue
		}
		out[line] = append([]Segment(nil), inner[from]...)
	}
	return out
}

// lookup finds the last segment starting at or before column.
func lookup(segs []Segment, column int) (Segment, bool) {
	i := sort.Search(len(segs), func(i int) bool { return segs[i].GenColumn > column })
	if i == 0 {
		return Segment{}, false
	}
	return segs[i-1], true
}

// Encode serializes m into the "mappings" field format.
func Encode(m Mappings) string {
	var sb strings.Builder
	prevSource, prevLine, prevColumn := 0, 0, 0
	for i, segs := range m {
		if i > 0 {
			sb.WriteByte(';')
		}
		prevGen := 0
		for j, seg := range segs {
			if j > 0 {
				sb.WriteByte(',')
			}
			encodeVLQ(&sb, seg.GenColumn-prevGen)
			encodeVLQ(&sb, seg.Source-prevSource)
			encodeVLQ(&sb, seg.OrigLine-prevLine)
			encodeVLQ(&sb, seg.OrigColumn-prevColumn)
			prevGen = seg.GenColumn
			prevSource = seg.Source
			prevLine = seg.OrigLine
			prevColumn = seg.OrigColumn
		}
	}
	return sb.String()
}

// Decode parses a "mappings" field. Segments without a source position are
// skipped; name indices are ignored.
func Decode(s string) (Mappings, error) {
	m := Mappings{nil}
	line := 0
	prevGen, prevSource, prevLine, prevColumn := 0, 0, 0, 0

	i := 0
	for i < len(s) {
		switch s[i] {
		case ';':
			m = append(m, nil)
			line++
			prevGen = 0
			i++
			continue
		case ',':
			i++
			continue
		}

		var fields [5]int
		n := 0
		for n < 5 && i < len(s) && s[i] != ',' && s[i] != ';' {
			v, next, err := decodeVLQ(s, i)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			i = next
		}

		prevGen += fields[0]
		if n < 4 {
			continue
		}
		prevSource += fields[1]
		prevLine += fields[2]
		prevColumn += fields[3]
		m[line] = append(m[line], Segment{
			GenColumn:  prevGen,
			Source:     prevSource,
			OrigLine:   prevLine,
			OrigColumn: prevColumn,
		})
	}
	return m, nil
}
