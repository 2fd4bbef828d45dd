// Package palette extracts a small set of representative colors from a
// target image. The palette is shown in reports; the search does not read it.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/piwi3910/blockpaint/internal/model"
)

// Method selects the extraction algorithm.
type Method int

const (
	MethodDominantColor Method = iota
	MethodKMeans
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParseMethod maps a configuration value to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dominantcolor", "dominant":
		return MethodDominantColor, nil
	case "kmeans", "k-means":
		return MethodKMeans, nil
	default:
		return MethodDominantColor, fmt.Errorf("unknown palette method %q", s)
	}
}

// Entry is one palette color with its share of the image.
type Entry struct {
	Color  model.Color
	Hex    string
	Weight float64
}

// candidate is a color proposed by an extractor before diversity selection.
type candidate struct {
	col    colorful.Color
	weight float64
}

// Extract returns up to k colors of img, most dominant first. When k-means
// yields nothing the dominant color extractor is used instead.
func Extract(img image.Image, k int, method Method) []Entry {
	if k <= 0 {
		return nil
	}
	var cands []candidate
	if method == MethodKMeans {
		cands = kmeansCandidates(img, k)
	}
	if len(cands) == 0 {
		cands = dominantCandidates(img, k)
	}
	return selectDiverse(cands, k)
}

func dominantCandidates(img image.Image, k int) []candidate {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	if len(found) == 0 {
		found = append(found, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}
	out := make([]candidate, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, candidate{col: col.Clamped(), weight: c.Weight})
	}
	return out
}

// maxSamples bounds the k-means dataset; larger images are subsampled.
const maxSamples = 12000

func kmeansCandidates(img image.Image, k int) []candidate {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	step := 1
	if w*h > maxSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxSamples))) + 1
	}

	data := make(clusters.Observations, 0, min(w*h, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			data = append(data, clusters.Coordinates{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(bl) / 65535.0,
			})
		}
	}
	if len(data) == 0 {
		return nil
	}

	groups, err := kmeans.New().Partition(data, min(max(k*4, k+2), len(data)))
	if err != nil {
		return nil
	}
	out := make([]candidate, 0, len(groups))
	for _, g := range groups {
		if len(g.Center) < 3 || len(g.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: g.Center[0], G: g.Center[1], B: g.Center[2]}.Clamped()
		out = append(out, candidate{col: col, weight: float64(len(g.Observations))})
	}
	return out
}

// selectDiverse greedily picks k candidates: the heaviest first, then the one
// farthest in Lab space from everything picked, scaled by its weight.
func selectDiverse(cands []candidate, k int) []Entry {
	if len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))

	var total, maxW float64
	labs := make([][3]float64, len(cands))
	for i := range cands {
		cands[i].weight = max(cands[i].weight, 1e-6)
		total += cands[i].weight
		maxW = max(maxW, cands[i].weight)
		l, a, b := cands[i].col.Lab()
		labs[i] = [3]float64{l, a, b}
	}

	picked := make([]int, 0, k)
	used := make([]bool, len(cands))
	seed := 0
	for i := range cands {
		if cands[i].weight > cands[seed].weight {
			seed = i
		}
	}
	picked = append(picked, seed)
	used[seed] = true

	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i := range cands {
			if used[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, p := range picked {
				var d float64
				for ch := range 3 {
					diff := labs[i][ch] - labs[p][ch]
					d += diff * diff
				}
				nearest = min(nearest, d)
			}
			score := math.Sqrt(nearest) * (0.55 + 0.45*math.Sqrt(cands[i].weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		picked = append(picked, best)
		used[best] = true
	}

	out := make([]Entry, 0, len(picked))
	for _, i := range picked {
		c := ToModel(cands[i].col)
		out = append(out, Entry{Color: c, Hex: cands[i].col.Hex(), Weight: cands[i].weight / total})
	}
	return out
}

// ToModel converts a colorful color to an opaque canvas color.
func ToModel(c colorful.Color) model.Color {
	r, g, b := c.Clamped().RGB255()
	return model.Color{r, g, b, 255}
}

// SortByBrightness orders entries from darkest to brightest by relative
// luminance.
func SortByBrightness(entries []Entry) {
	lum := func(e Entry) float64 {
		r, g, b := colorful.Color{
			R: float64(e.Color[0]) / 255,
			G: float64(e.Color[1]) / 255,
			B: float64(e.Color[2]) / 255,
		}.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		la, lb := lum(a), lum(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

// Swatch renders the palette as a strip of square tiles.
func Swatch(entries []Entry, tile int) (*image.NRGBA, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if tile <= 0 {
		tile = 64
	}
	img := image.NewNRGBA(image.Rect(0, 0, tile*len(entries), tile))
	for i, e := range entries {
		c := color.NRGBA{R: e.Color[0], G: e.Color[1], B: e.Color[2], A: e.Color[3]}
		for y := range tile {
			for x := i * tile; x < (i+1)*tile; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img, nil
}
