package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"elnino/internal/diag"
)

type palette struct {
	err, warn, info, code, subject, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan),
		code:    color.New(color.Faint),
		subject: color.New(color.Bold),
		note:    color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.subject, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <SEV> <CODE> <subject>: <Message>
// затем Notes с отступом. Колонка subject выравнивается по ширине.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	items := bag.Items()

	subjectWidth := 0
	for _, d := range items {
		subjectWidth = max(subjectWidth, runewidth.StringWidth(clip(d.Subject, opts.SubjectWidth)))
	}

	for _, d := range items {
		sev := fmt.Sprintf("%-7s", d.Severity.String())
		line := p.severity(d.Severity).Sprint(sev) + " " + p.code.Sprint(d.Code.ID())
		if subjectWidth > 0 {
			subject := runewidth.FillRight(clip(d.Subject, opts.SubjectWidth), subjectWidth)
			line += " " + p.subject.Sprint(subject)
		}
		line += " " + d.Message
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			note := "    " + p.note.Sprint("note:") + " "
			if n.Subject != "" {
				note += n.Subject + ": "
			}
			if _, err := fmt.Fprintln(w, note+n.Msg); err != nil {
				return err
			}
		}
	}
	if opts.Summary {
		_, err := fmt.Fprintln(w, Summary(bag))
		return err
	}
	return nil
}

// Summary counts diagnostics per severity.
func Summary(bag *diag.Bag) string {
	var errs, warns, infos int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		default:
			infos++
		}
	}
	s := fmt.Sprintf("%d error(s), %d warning(s), %d info", errs, warns, infos)
	if n := bag.Dropped(); n > 0 {
		s += fmt.Sprintf(" (+%d suppressed)", n)
	}
	return s
}

func clip(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
