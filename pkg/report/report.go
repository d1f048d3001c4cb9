// Package report renders predictions for terminals and pipes.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-tmhmm/pkg/inference"
	"github.com/dd0wney/cluso-tmhmm/pkg/topology"
)

// DefaultWidth is the number of residues per block.
const DefaultWidth = 50

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	membraneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFF00")).
			Background(lipgloss.Color("#5F0087"))

	insideStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	outsideStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))
)

// Options controls rendering.
type Options struct {
	Width int
	// Plain disables styling, for pipes and files.
	Plain bool
	// Blocks adds the label/residue alignment after the summary.
	Blocks bool
}

// DefaultOptions returns styled output with alignment blocks.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Blocks: true}
}

// Block is one aligned chunk of labels over residues.
type Block struct {
	Labels   string
	Residues string
}

// Blocks splits labels and residues into chunks of width columns. Both
// strings are expected to have the same length.
func Blocks(labels, residues string, width int) []Block {
	if width <= 0 {
		width = DefaultWidth
	}
	var out []Block
	for i := 0; i < len(residues); i += width {
		end := min(i+width, len(residues))
		out = append(out, Block{Labels: labels[i:end], Residues: residues[i:end]})
	}
	return out
}

// SegmentName is the feature name printed in the summary table.
func SegmentName(l topology.Label) string {
	switch l {
	case topology.Membrane:
		return "TMhelix"
	case topology.Inside:
		return "inside"
	case topology.Outside:
		return "outside"
	default:
		return l.String()
	}
}

// Writer renders predictions to an io.Writer.
type Writer struct {
	out  io.Writer
	opts Options
}

func NewWriter(out io.Writer, opts Options) *Writer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	return &Writer{out: out, opts: opts}
}

func (w *Writer) style(s lipgloss.Style, text string) string {
	if w.opts.Plain || text == "" {
		return text
	}
	return s.Render(text)
}

// Write prints the summary for pred followed by its alignment blocks.
func (w *Writer) Write(pred *inference.Prediction, residues string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", w.style(headerStyle, fmt.Sprintf("# %s Length: %d", pred.ID, pred.Length)))
	fmt.Fprintf(&b, "%s\n", w.style(headerStyle, fmt.Sprintf("# %s Number of predicted TMHs: %d", pred.ID, pred.Helices)))
	fmt.Fprintf(&b, "# %s Method: %s  log P: %.4f\n", pred.ID, pred.Method, pred.LogLikelihood)
	for _, seg := range pred.Segments {
		name := fmt.Sprintf("%-8s", SegmentName(seg.Label))
		fmt.Fprintf(&b, "%s\tTMHMM\t%s\t%6d\t%6d\n", pred.ID, w.styleLabel(seg.Label, name), seg.Start, seg.End)
	}

	if w.opts.Blocks {
		b.WriteString("\n")
		for _, blk := range Blocks(pred.Labels, residues, w.opts.Width) {
			b.WriteString(w.renderRuns(blk.Labels, blk.Labels))
			b.WriteString("\n")
			b.WriteString(w.renderRuns(blk.Labels, blk.Residues))
			b.WriteString("\n\n")
		}
	}

	_, err := io.WriteString(w.out, b.String())
	return err
}

// WriteError prints a per-record failure without stopping the report.
func (w *Writer) WriteError(id string, err error) error {
	_, werr := fmt.Fprintf(w.out, "%s\n", w.style(errorStyle, fmt.Sprintf("# %s error: %v", id, err)))
	return werr
}

func (w *Writer) styleLabel(l topology.Label, text string) string {
	switch l {
	case topology.Membrane:
		return w.style(membraneStyle, text)
	case topology.Inside:
		return w.style(insideStyle, text)
	case topology.Outside:
		return w.style(outsideStyle, text)
	}
	return text
}

// renderRuns styles text in runs of equal label.
func (w *Writer) renderRuns(labels, text string) string {
	if w.opts.Plain {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); {
		j := i + 1
		for j < len(text) && labels[j] == labels[i] {
			j++
		}
		b.WriteString(w.styleLabel(topology.Label(labels[i]), text[i:j]))
		i = j
	}
	return b.String()
}
