package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/piwi3910/blockpaint/internal/model"
)

// stateFile is the on-disk initial state. Numbers are read as floats and
// truncated, so both 400 and 400.0 are accepted.
type stateFile struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Blocks []stateBlock `json:"blocks"`
}

type stateBlock struct {
	BlockID    string    `json:"blockId"`
	BottomLeft []float64 `json:"bottomLeft"`
	TopRight   []float64 `json:"topRight"`
	Color      []float64 `json:"color"`
}

// ReadInitialState decodes an initial state document.
func ReadInitialState(r io.Reader) (model.CanvasState, error) {
	var f stateFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return model.CanvasState{}, fmt.Errorf("failed to parse initial state: %w", err)
	}

	state := model.CanvasState{Width: int(f.Width), Height: int(f.Height)}
	for i, b := range f.Blocks {
		if b.BlockID == "" {
			return model.CanvasState{}, fmt.Errorf("block %d: missing blockId", i)
		}
		bl, err := toPoint(b.BottomLeft)
		if err != nil {
			return model.CanvasState{}, fmt.Errorf("block %q bottomLeft: %w", b.BlockID, err)
		}
		tr, err := toPoint(b.TopRight)
		if err != nil {
			return model.CanvasState{}, fmt.Errorf("block %q topRight: %w", b.BlockID, err)
		}
		c, err := toColor(b.Color)
		if err != nil {
			return model.CanvasState{}, fmt.Errorf("block %q color: %w", b.BlockID, err)
		}
		state.Blocks = append(state.Blocks, model.Block{ID: b.BlockID, BottomLeft: bl, TopRight: tr, Color: c})
	}
	return state, nil
}

// LoadInitialState reads an initial state JSON file.
func LoadInitialState(path string) (model.CanvasState, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.CanvasState{}, fmt.Errorf("failed to open initial state: %w", err)
	}
	defer f.Close()
	return ReadInitialState(f)
}

// SaveInitialState writes a canvas partition in the initial state format so
// a later run can resume from it.
func SaveInitialState(path string, state model.CanvasState) error {
	f := stateFile{Width: float64(state.Width), Height: float64(state.Height), Blocks: []stateBlock{}}
	for _, b := range state.Blocks {
		f.Blocks = append(f.Blocks, stateBlock{
			BlockID:    b.ID,
			BottomLeft: []float64{float64(b.BottomLeft.X), float64(b.BottomLeft.Y)},
			TopRight:   []float64{float64(b.TopRight.X), float64(b.TopRight.Y)},
			Color:      []float64{float64(b.Color[0]), float64(b.Color[1]), float64(b.Color[2]), float64(b.Color[3])},
		})
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal initial state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write initial state: %w", err)
	}
	return nil
}

func toPoint(v []float64) (model.Point, error) {
	if len(v) != 2 {
		return model.Point{}, fmt.Errorf("expected 2 coordinates, got %d", len(v))
	}
	return model.Point{X: int(v[0]), Y: int(v[1])}, nil
}

func toColor(v []float64) (model.Color, error) {
	var c model.Color
	if len(v) != len(c) {
		return c, fmt.Errorf("expected 4 channels, got %d", len(v))
	}
	for i, ch := range v {
		if ch < 0 || ch > 255 {
			return c, fmt.Errorf("channel %d out of range: %v", i, ch)
		}
		c[i] = uint8(ch)
	}
	return c, nil
}
