package main

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/piwi3910/blockpaint/internal/project"
)

// writeFixture writes a 10x10 target whose first 3 columns are red and a
// program that cuts at 5 instead of 3. It returns the program and target
// paths.
func writeFixture(t *testing.T, dir string) (string, string) {
	t.Helper()
	target := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := model.White
			if x < 3 {
				c = model.Color{255, 0, 0, 255}
			}
			i := target.PixOffset(x, y)
			copy(target.Pix[i:i+4], c[:])
		}
	}
	targetPath := filepath.Join(dir, "target.png")
	require.NoError(t, project.SavePNG(targetPath, target))

	programPath := filepath.Join(dir, "stripe.isl")
	src := "# stripe\ncut [0] [X] [5]\ncolor [0.0] [255, 0, 0, 255]\n"
	require.NoError(t, os.WriteFile(programPath, []byte(src), 0644))
	return programPath, targetPath
}

func configFlag(dir string) string {
	return "-config=" + filepath.Join(dir, "config.yaml")
}

func TestRun_OptimizeToStdout(t *testing.T) {
	dir := t.TempDir()
	programPath, targetPath := writeFixture(t, dir)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{configFlag(dir), programPath, "-", targetPath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, project.ResultHeader, lines[0])
	assert.Equal(t, "cut [0] [X] [3]", lines[1])
	assert.Equal(t, "color [0.0] [255, 0, 0, 255]", lines[2])
	assert.Contains(t, lines[3], "totalCost=24")
	assert.Contains(t, stderr.String(), "optimization finished")
}

func TestRun_OptimizeWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	programPath, targetPath := writeFixture(t, dir)
	outPath := filepath.Join(dir, "best.isl")
	statePath := filepath.Join(dir, "final.json")
	recordPath := filepath.Join(dir, "run.json")
	dxfPath := filepath.Join(dir, "layout.dxf")
	palettePath := filepath.Join(dir, "palette.png")

	var stdout, stderr bytes.Buffer
	args := []string{
		configFlag(dir), "-log-json",
		"-state-out=" + statePath, "-record=" + recordPath,
		"-dxf=" + dxfPath, "-palette=" + palettePath,
		programPath, outPath, targetPath,
	}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

	prog, err := project.LoadProgram(outPath)
	require.NoError(t, err)
	assert.Len(t, prog, 2)

	state, err := project.LoadInitialState(statePath)
	require.NoError(t, err)
	assert.Len(t, state.Blocks, 2)

	rec, err := project.LoadRunRecord(recordPath)
	require.NoError(t, err)
	assert.Equal(t, int64(53), rec.BaselineCost)
	assert.Equal(t, int64(24), rec.TotalCost)

	for _, p := range []string{dxfPath, palettePath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.True(t, strings.HasPrefix(stderr.String(), "{"), "expected JSON logs")
}

func TestRun_ResumeFromState(t *testing.T) {
	dir := t.TempDir()
	programPath, targetPath := writeFixture(t, dir)

	// A state that already holds the cut; the program only colors.
	statePath := filepath.Join(dir, "cut.json")
	require.NoError(t, project.SaveInitialState(statePath, model.CanvasState{
		Width: 10, Height: 10,
		Blocks: []model.Block{
			{ID: "0.0", BottomLeft: model.Point{}, TopRight: model.Point{X: 3, Y: 10}, Color: model.White},
			{ID: "0.1", BottomLeft: model.Point{X: 3}, TopRight: model.Point{X: 10, Y: 10}, Color: model.White},
		},
	}))
	require.NoError(t, os.WriteFile(programPath, []byte("color [0.0] [255, 0, 0, 255]\n"), 0644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{configFlag(dir), programPath, "-", targetPath, statePath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "imageDiffCost=0")
}

func TestRun_Render(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, project.SaveAppConfig(filepath.Join(dir, "config.yaml"), model.AppConfig{
		CanvasWidth: 20, CanvasHeight: 10,
		Search:      model.DefaultSearchSettings(),
		LogLevel:    "warn",
	}))
	programPath := filepath.Join(dir, "render.isl")
	require.NoError(t, os.WriteFile(programPath, []byte("cut [0] [x] [10]\ncolor [0.1] [0, 0, 255, 255]\n"), 0644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{configFlag(dir), programPath}, &stdout, &stderr), stderr.String())

	img, err := project.LoadTarget(programPath + ".png")
	require.NoError(t, err)
	assert.Equal(t, 20, img.Rect.Dx())
	assert.Equal(t, 10, img.Rect.Dy())
	left := img.NRGBAAt(0, 0)
	right := img.NRGBAAt(15, 0)
	assert.Equal(t, uint8(255), left.R)
	assert.Equal(t, uint8(0), right.R)
	assert.Equal(t, uint8(255), right.B)
	assert.Empty(t, stderr.String())
}

func TestRun_RenderFailingProgram(t *testing.T) {
	dir := t.TempDir()
	programPath := filepath.Join(dir, "bad.isl")
	require.NoError(t, os.WriteFile(programPath, []byte("swap [0] [7]\n"), 0644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{configFlag(dir), programPath}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruction 0")
}

func TestRun_WrongArgumentCount(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), nil, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), "usage:")

	err = run(context.Background(), []string{"a", "b", "c", "d", "e"}, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_UnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	programPath, _ := writeFixture(t, dir)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{configFlag(dir), "-log-level=loud", programPath}, &stdout, &stderr)
	assert.ErrorContains(t, err, "unknown log level")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseArgs([]string{configFlag(dir), "-radius=7", "-workers=0", "p"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.Radius)
	assert.Equal(t, 1, cfg.Search.Workers, "normalized")
	assert.Equal(t, model.DefaultSearchSettings().Rounds, cfg.Search.Rounds)
}

func TestRun_FailingBestSkipsCanvasArtifacts(t *testing.T) {
	dir := t.TempDir()
	_, targetPath := writeFixture(t, dir)
	programPath := filepath.Join(dir, "bad.isl")
	require.NoError(t, os.WriteFile(programPath, []byte("swap [0] [7]\n"), 0644))
	dxfPath := filepath.Join(dir, "layout.dxf")
	statePath := filepath.Join(dir, "final.json")
	recordPath := filepath.Join(dir, "run.json")

	var stdout, stderr bytes.Buffer
	args := []string{
		configFlag(dir), "-dxf=" + dxfPath, "-state-out=" + statePath, "-record=" + recordPath,
		programPath, "-", targetPath,
	}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

	assert.Contains(t, stderr.String(), "best program fails")
	for _, p := range []string{dxfPath, statePath} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s should not be written", p)
	}
	rec, err := project.LoadRunRecord(recordPath)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.BaselineError)
}
