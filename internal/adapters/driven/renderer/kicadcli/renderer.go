package kicadcli

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

const (
	// DefaultBinary is the kicad-cli executable looked up on PATH.
	DefaultBinary = "kicad-cli"

	// DefaultSize is the edge length of the rendered PNG in pixels.
	DefaultSize = 400

	// footprintLayers are the layers exported for a footprint preview.
	footprintLayers = "F.Cu,F.SilkS,F.Fab"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Renderer renders previews by shelling out to kicad-cli.
type Renderer struct {
	binary string
	size   int
	run    runFunc
}

// NewRenderer creates a renderer. Empty binary and non-positive size
// fall back to the defaults.
func NewRenderer(binary string, size int) *Renderer {
	if binary == "" {
		binary = DefaultBinary
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{binary: binary, size: size, run: execRun}
}

// Available reports whether the kicad-cli binary can be found.
func (r *Renderer) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Render exports one side of artifacts as a PNG.
func (r *Renderer) Render(ctx context.Context, kind domain.ArtifactKind, artifacts domain.ConvertedArtifacts) ([]byte, error) {
	dir, err := os.MkdirTemp("", "kicad-lcsc-preview-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	defer os.RemoveAll(dir)

	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}

	args, err := prepare(dir, outDir, kind, artifacts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}

	logger.Debug("render %s: %s %s", kind, r.binary, strings.Join(args, " "))
	if out, err := r.run(ctx, r.binary, args...); err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", domain.ErrRenderFailed, r.binary, err, strings.TrimSpace(string(out)))
	}

	svg, err := firstSVG(outDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	img, err := rasterize(svg, r.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return img, nil
}

// prepare writes the artifact under dir and returns the kicad-cli arguments.
func prepare(dir, outDir string, kind domain.ArtifactKind, artifacts domain.ConvertedArtifacts) ([]string, error) {
	switch kind {
	case domain.ArtifactSymbol:
		lib := filepath.Join(dir, "preview.kicad_sym")
		if err := os.WriteFile(lib, artifacts.Symbol.Content, 0644); err != nil {
			return nil, err
		}
		args := []string{"sym", "export", "svg", "--output", outDir}
		if artifacts.Symbol.Name != "" {
			args = append(args, "--symbol", artifacts.Symbol.Name)
		}
		return append(args, lib), nil

	case domain.ArtifactFootprint:
		name := artifacts.Footprint.Name
		if name == "" {
			name = "preview"
		}
		pretty := filepath.Join(dir, "preview.pretty")
		if err := os.Mkdir(pretty, 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(pretty, name+".kicad_mod"), artifacts.Footprint.Content, 0644); err != nil {
			return nil, err
		}
		return []string{"fp", "export", "svg", "--output", outDir,
			"--footprint", name, "--layers", footprintLayers, pretty}, nil

	default:
		return nil, fmt.Errorf("no preview for %s", kind)
	}
}

// firstSVG returns the first exported SVG by name. Multi-unit symbols
// export one file per unit.
func firstSVG(dir string) ([]byte, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.svg"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("kicad-cli produced no svg")
	}
	sort.Strings(matches)
	return os.ReadFile(matches[0])
}

// rasterize draws svg centred on a white size×size canvas, keeping its
// aspect ratio, and encodes it as PNG.
func rasterize(svg []byte, size int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(size), float64(size)
	}
	scale := float64(size) / w
	if s := float64(size) / h; s < scale {
		scale = s
	}
	tw, th := w*scale, h*scale
	icon.SetTarget((float64(size)-tw)/2, (float64(size)-th)/2, tw, th)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
