package topology

import (
	"strconv"
	"strings"
)

// Segment is a maximal run of one label. Start and End are 1-based
// inclusive residue positions.
type Segment struct {
	Label Label `json:"label"`
	Start int   `json:"start"`
	End   int   `json:"end"`
}

// Len returns the number of residues in the segment.
func (s Segment) Len() int {
	return s.End - s.Start + 1
}

// Segments splits labels into contiguous runs.
func Segments(labels []Label) []Segment {
	var segs []Segment
	for i, l := range labels {
		if n := len(segs); n > 0 && segs[n-1].Label == l {
			segs[n-1].End = i + 1
			continue
		}
		segs = append(segs, Segment{Label: l, Start: i + 1, End: i + 1})
	}
	return segs
}

// HelixCount returns the number of membrane segments.
func HelixCount(segs []Segment) int {
	n := 0
	for _, s := range segs {
		if s.Label == Membrane {
			n++
		}
	}
	return n
}

// Topology renders segments in the compact "i7-29o44-66i" form: loop
// sides as letters, helices as residue ranges.
func Topology(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		switch s.Label {
		case Membrane:
			b.WriteString(strconv.Itoa(s.Start))
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(s.End))
		case Inside, Outside:
			b.WriteByte(byte(s.Label))
		}
	}
	return b.String()
}
