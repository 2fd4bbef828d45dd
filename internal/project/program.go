package project

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/piwi3910/blockpaint/internal/engine"
	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/piwi3910/blockpaint/internal/program"
)

// ResultHeader opens every optimized program file.
const ResultHeader = "################# BEST RESULT #########################"

// LoadProgram reads and parses a program file.
func LoadProgram(path string) (model.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	defer f.Close()

	prog, err := program.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// WriteResult writes the header, the program of res and its summary line.
// The output is itself a valid program file.
func WriteResult(w io.Writer, res engine.Result) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, ResultHeader); err != nil {
		return err
	}
	if err := program.Format(bw, res.Program); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, res.String()); err != nil {
		return err
	}
	return bw.Flush()
}

// SaveResult writes WriteResult output to path.
func SaveResult(path string, res engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	if err := WriteResult(f, res); err != nil {
		f.Close()
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return f.Close()
}
