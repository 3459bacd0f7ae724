// Package console prints scan outcomes for humans.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Console struct {
	out    io.Writer
	errOut io.Writer

	green  *color.Color
	red    *color.Color
	yellow *color.Color
}

// New returns a console writing to out and errOut. Colours are also
// disabled automatically when the process is not attached to a terminal.
func New(out, errOut io.Writer, noColor bool) *Console {
	c := &Console{
		out:    out,
		errOut: errOut,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed, color.Bold),
		yellow: color.New(color.FgYellow),
	}
	if noColor {
		for _, col := range []*color.Color{c.green, c.red, c.yellow} {
			col.DisableColor()
		}
	}
	return c
}

func Stdio(noColor bool) *Console {
	return New(os.Stdout, os.Stderr, noColor)
}

func (c *Console) Out() io.Writer { return c.out }

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, "[INFO] "+format+"\n", args...)
}

func (c *Console) Clean(path string) {
	c.green.Fprintf(c.out, "All OK, FILE(%s) is safe\n", path)
}

func (c *Console) Detected(virusName, path string) {
	c.red.Fprintf(c.out, "Find VIRUS(%s) in FILE(%s)\n", virusName, path)
}

func (c *Console) Warn(format string, args ...any) {
	c.yellow.Fprintf(c.errOut, "[WARN] "+format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	c.red.Fprintf(c.errOut, "[ERROR] "+format+"\n", args...)
}
