package program

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/blockpaint/internal/model"
)

// Format writes one instruction per line.
func Format(w io.Writer, prog model.Program) error {
	bw := bufio.NewWriter(w)
	for _, cmd := range prog {
		if _, err := fmt.Fprintln(bw, cmd.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String renders a program in its text form.
func String(prog model.Program) string {
	var sb strings.Builder
	_ = Format(&sb, prog)
	return sb.String()
}
