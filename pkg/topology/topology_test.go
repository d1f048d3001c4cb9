package topology

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dd0wney/cluso-tmhmm/models"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in   string
		want Label
	}{
		{"", None},
		{"M", Membrane},
		{"i", Inside},
		{"o", Outside},
	}
	for _, tt := range tests {
		got, err := ParseLabel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLabel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLabel("x"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("ParseLabel(x) = %v", err)
	}
}

func TestLabelProjector_Bundled(t *testing.T) {
	m, err := model.Compile(models.TMHMM, model.DefaultCompileOptions())
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewLabelProjector(m)
	if err != nil {
		t.Fatal(err)
	}

	idx := m.Index()
	path := make([]int, 0, 5)
	for _, name := range []string{"begin", "inglob", "Mi5", "outglob", "end"} {
		i, err := idx.IndexOf(name)
		if err != nil {
			t.Fatal(err)
		}
		path = append(path, i)
	}
	if got := Format(p.Project(path)); got != "-iMo-" {
		t.Errorf("Project = %q, want -iMo-", got)
	}
}

func TestLabelProjector_Fallback(t *testing.T) {
	text := "s { trans a:1.0; } a { trans end:1.0; only X:1.0; } end { }"
	m, err := model.Compile(text, model.CompileOptions{Alphabet: model.MustAlphabet("X")})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewLabelProjector(m)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Project([]int{1, 7}); got[0] != Outside || got[1] != None {
		t.Errorf("Project = %v", got)
	}

	bad := "s { trans a:1.0; } a { trans end:1.0; only X:1.0; label helix; } end { }"
	m, err = model.Compile(bad, model.CompileOptions{Alphabet: model.MustAlphabet("X")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewLabelProjector(m); !errors.Is(err, ErrUnknownLabel) || !model.IsConfiguration(err) {
		t.Errorf("NewLabelProjector = %v", err)
	}
}

func TestRangeProjector(t *testing.T) {
	p := NewRangeProjector(2, 4)
	if got := Format(p.Project([]int{1, 2, 3, 4, 5})); got != "oMMMo" {
		t.Errorf("Project = %q", got)
	}
}

func TestSegments(t *testing.T) {
	labels := []Label{Inside, Inside, Membrane, Membrane, Membrane, Outside, Membrane, Inside}
	segs := Segments(labels)

	want := []Segment{
		{Inside, 1, 2},
		{Membrane, 3, 5},
		{Outside, 6, 6},
		{Membrane, 7, 7},
		{Inside, 8, 8},
	}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments, want %d: %v", len(segs), len(want), segs)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, segs[i], want[i])
		}
	}
	if HelixCount(segs) != 2 {
		t.Errorf("HelixCount = %d", HelixCount(segs))
	}
	if segs[1].Len() != 3 {
		t.Errorf("Len = %d", segs[1].Len())
	}
	if got := Topology(segs); got != "i3-5o7-7i" {
		t.Errorf("Topology = %q", got)
	}
	if Segments(nil) != nil {
		t.Error("no labels, no segments")
	}
}

func TestSegmentJSON(t *testing.T) {
	seg := Segment{Label: Membrane, Start: 4, End: 24}
	data, err := json.Marshal(seg)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"label":"M","start":4,"end":24}` {
		t.Errorf("Marshal = %s", data)
	}
	var back Segment
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != seg {
		t.Errorf("Unmarshal = %+v, want %+v", back, seg)
	}
	if err := json.Unmarshal([]byte(`{"label":"x"}`), &back); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("bad label error = %v", err)
	}
}
