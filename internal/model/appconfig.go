package model

// DefaultCanvasSize is the side length of the reference square canvas.
const DefaultCanvasSize = 400

// SearchSettings controls the cut-offset local search.
type SearchSettings struct {
	Radius      int  `json:"radius" yaml:"radius"`             // Offset perturbation range for cuts, [-Radius, Radius]
	ColorSearch bool `json:"color_search" yaml:"color_search"` // Also perturb color instructions
	ColorRadius int  `json:"color_radius" yaml:"color_radius"` // Channel perturbation range for colors
	Workers     int  `json:"workers" yaml:"workers"`           // Parallel candidate evaluations, 1 = sequential
	Rounds      int  `json:"rounds" yaml:"rounds"`             // Full scans over the program, stops early without improvement
}

// DefaultSearchSettings returns the reference neighbourhood: 9 offsets per
// line cut, 81 per point cut, color search disabled, one sequential pass.
func DefaultSearchSettings() SearchSettings {
	return SearchSettings{
		Radius:      4,
		ColorSearch: false,
		ColorRadius: 2,
		Workers:     1,
		Rounds:      1,
	}
}

// Normalized replaces out-of-range values with usable minimums.
func (s SearchSettings) Normalized() SearchSettings {
	if s.Radius < 0 {
		s.Radius = 0
	}
	if s.ColorRadius < 0 {
		s.ColorRadius = 0
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	if s.Rounds < 1 {
		s.Rounds = 1
	}
	return s
}

// AppConfig holds command-line tool preferences.
type AppConfig struct {
	// Canvas used when no initial state file is given
	CanvasWidth  int `json:"canvas_width" yaml:"canvas_width"`
	CanvasHeight int `json:"canvas_height" yaml:"canvas_height"`

	Search SearchSettings `json:"search" yaml:"search"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"` // "debug", "info", "warn", "error"
	LogJSON  bool   `json:"log_json" yaml:"log_json"`

	// Palette extraction for reports
	PaletteSize   int    `json:"palette_size" yaml:"palette_size"`
	PaletteMethod string `json:"palette_method" yaml:"palette_method"` // "dominantcolor" or "kmeans"
}

// DefaultAppConfig returns an AppConfig populated with the reference values.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		CanvasWidth:   DefaultCanvasSize,
		CanvasHeight:  DefaultCanvasSize,
		Search:        DefaultSearchSettings(),
		LogLevel:      "info",
		LogJSON:       false,
		PaletteSize:   6,
		PaletteMethod: "dominantcolor",
	}
}
