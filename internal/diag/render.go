package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/defermelowie/cbindgen/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.Faint)
)

// Renderer prints diagnostics to a terminal stream.
type Renderer struct {
	Out     io.Writer
	Files   *source.FileSet
	Colored bool
}

// Render prints every diagnostic in the bag in its current order.
func (r *Renderer) Render(bag *Bag) {
	if r == nil || bag == nil {
		return
	}
	for _, d := range bag.Items() {
		r.renderOne(d)
	}
}

func (r *Renderer) renderOne(d Diagnostic) {
	label := d.Severity.String()
	if r.Colored {
		switch d.Severity {
		case SevError:
			label = errorColor.Sprint(label)
		case SevWarning:
			label = warningColor.Sprint(label)
		default:
			label = infoColor.Sprint(label)
		}
	}
	fmt.Fprintf(r.Out, "%s %s %s\n", label, d.Code.ID(), d.Message)
	if r.Files != nil && d.Primary != (source.Span{}) {
		path, pos := r.Files.Position(d.Primary)
		fmt.Fprintf(r.Out, "  --> %s:%d:%d\n", path, pos.Line, pos.Col)
	}
	for _, n := range d.Notes {
		msg := "note: " + n.Msg
		if r.Colored {
			msg = noteColor.Sprint(msg)
		}
		fmt.Fprintf(r.Out, "  %s\n", msg)
	}
}
