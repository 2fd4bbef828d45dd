// Package program reads and writes the line-oriented instruction format:
//
//	cut [0] [X] [200]
//	cut [0.1] [50, 50]
//	color [0.1.2] [255, 255, 255, 255]
//	swap [0.0] [0.1]
//	merge [0.0] [0.1]
//
// Lines starting with # are comments. Whitespace is not significant.
package program

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/blockpaint/internal/model"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("syntax error")

// ParseError reports a malformed instruction and the 1-based line it was found on.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// argRe extracts the bracketed arguments of an instruction.
var argRe = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Parse parses a program from its text form.
func Parse(text string) (model.Program, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseReader parses a program line by line.
func ParseReader(r io.Reader) (model.Program, error) {
	var prog model.Program
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		line := strings.Join(strings.Fields(raw), "")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: strings.TrimSpace(raw), Err: err}
		}
		prog = append(prog, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return prog, nil
}

// parseLine parses one instruction with all whitespace already removed.
func parseLine(line string) (model.Command, error) {
	open := strings.IndexByte(line, '[')
	if open <= 0 {
		return nil, fmt.Errorf("%w: missing arguments", ErrSyntax)
	}
	keyword := line[:open]
	rest := line[open:]

	var args []string
	for _, m := range argRe.FindAllStringSubmatch(rest, -1) {
		args = append(args, m[1])
	}
	if strings.Join(wrap(args), "") != rest {
		return nil, fmt.Errorf("%w: malformed arguments %q", ErrSyntax, rest)
	}

	switch keyword {
	case "cut":
		switch len(args) {
		case 2:
			p, err := parsePoint(args[1])
			if err != nil {
				return nil, err
			}
			return model.PointCutMove{BlockID: args[0], Point: p}, nil
		case 3:
			o, err := model.ParseOrientation(args[1])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			offset, err := parseInt(args[2])
			if err != nil {
				return nil, err
			}
			return model.LineCutMove{BlockID: args[0], Orientation: o, Offset: offset}, nil
		default:
			return nil, fmt.Errorf("%w: cut takes 2 or 3 arguments, got %d", ErrSyntax, len(args))
		}
	case "color":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: color takes 2 arguments, got %d", ErrSyntax, len(args))
		}
		c, err := parseColor(args[1])
		if err != nil {
			return nil, err
		}
		return model.ColorMove{BlockID: args[0], Color: c}, nil
	case "swap", "merge":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: %s takes 2 arguments, got %d", ErrSyntax, keyword, len(args))
		}
		if keyword == "swap" {
			return model.SwapMove{Block1: args[0], Block2: args[1]}, nil
		}
		return model.MergeMove{Block1: args[0], Block2: args[1]}, nil
	default:
		return nil, fmt.Errorf("%w: unknown instruction %q", ErrSyntax, keyword)
	}
}

func wrap(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = "[" + a + "]"
	}
	return out
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", ErrSyntax, s)
	}
	return n, nil
}

func parsePoint(s string) (model.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Point{}, fmt.Errorf("%w: point needs 2 coordinates, got %q", ErrSyntax, s)
	}
	x, err := parseInt(parts[0])
	if err != nil {
		return model.Point{}, err
	}
	y, err := parseInt(parts[1])
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{X: x, Y: y}, nil
}

func parseColor(s string) (model.Color, error) {
	var c model.Color
	parts := strings.Split(s, ",")
	if len(parts) != len(c) {
		return c, fmt.Errorf("%w: color needs 4 channels, got %q", ErrSyntax, s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return c, fmt.Errorf("%w: invalid channel %q", ErrSyntax, p)
		}
		c[i] = uint8(v)
	}
	return c, nil
}
