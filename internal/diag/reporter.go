package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/kdetry/MicroTS/internal/source"
)

// Reporter renders diagnostics for humans. Output goes to Out (stderr by
// default). Color is controlled by the CLI's --color flag through
// SetColorEnabled before any rendering happens.
type Reporter struct {
	Out io.Writer

	errColor  *color.Color
	warnColor *color.Color
	posColor  *color.Color
}

func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stderr
	}
	return &Reporter{
		Out:       out,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow, color.Bold),
		posColor:  color.New(color.FgCyan),
	}
}

// SetColorEnabled overrides the global color mode for the process.
func SetColorEnabled(on bool) {
	color.NoColor = !on
}

// Report renders one diagnostic: a headline, the position, and when the
// offending file is readable, the source line with a width-correct caret
// underline.
func (r *Reporter) Report(d *Diagnostic) {
	if d == nil {
		return
	}
	head := r.errColor
	label := "error"
	if d.Severity == SevWarning {
		head = r.warnColor
		label = "warning"
	}
	fmt.Fprintf(r.Out, "%s: %s (%s)\n", head.Sprintf("%s[%s]", label, d.Code.ID()), d.Message, d.Code)
	if !d.Pos.Valid() {
		return
	}
	fmt.Fprintf(r.Out, "  %s %s\n", r.posColor.Sprint("-->"), d.Pos)

	line := r.sourceLine(d.Pos)
	if line == "" {
		return
	}
	prefix := fmt.Sprintf("%4d | ", d.Pos.Line)
	fmt.Fprintf(r.Out, "%s%s\n", prefix, line)
	col := d.Pos.Col
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	pad := runewidth.StringWidth(line[:col-1])
	fmt.Fprintf(r.Out, "%s%s%s\n",
		strings.Repeat(" ", len(prefix)),
		strings.Repeat(" ", pad),
		head.Sprint("^"))
}

func (r *Reporter) sourceLine(pos source.Pos) string {
	src, err := os.ReadFile(pos.Path)
	if err != nil {
		return ""
	}
	f := &source.File{Path: pos.Path, Src: src}
	return f.Line(pos.Line)
}
