// Package vrml converts the OBJ meshes served by EasyEDA into VRML 2.0,
// the mesh format KiCad reads for footprint 3-D models.
package vrml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
)

// Header is the first line of every VRML 2.0 file.
const Header = "#VRML V2.0 utf8"

// unitsPerMM converts millimetres into VRML units (0.1 inch).
const unitsPerMM = 1 / 2.54

// ErrEmptyMesh is returned when the OBJ payload has no faces.
var ErrEmptyMesh = errors.New("obj payload contains no faces")

// Ensure Transcoder implements the interface.
var _ driven.ModelTranscoder = (*Transcoder)(nil)

// Transcoder converts OBJ payloads to VRML.
type Transcoder struct{}

// NewTranscoder creates a new Transcoder.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

type material struct {
	diffuse      [3]float64
	transparency float64
}

type group struct {
	material string
	faces    [][]int
}

// ToVRML converts obj into a VRML 2.0 document with one Shape per material.
// Materials may be declared inline (newmtl/Kd/d), as EasyEDA does.
func (t *Transcoder) ToVRML(obj []byte) ([]byte, error) {
	materials := map[string]*material{}
	var current *material
	var vertices [][3]float64
	var groups []*group
	active := &group{}

	sc := bufio.NewScanner(bytes.NewReader(obj))
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "newmtl":
			if len(fields) < 2 {
				continue
			}
			current = &material{diffuse: [3]float64{0.8, 0.8, 0.8}}
			materials[fields[1]] = current
		case "Kd":
			if current != nil && len(fields) >= 4 {
				for i := 0; i < 3; i++ {
					current.diffuse[i], _ = strconv.ParseFloat(fields[i+1], 64)
				}
			}
		case "d":
			if current != nil && len(fields) >= 2 {
				d, _ := strconv.ParseFloat(fields[1], 64)
				current.transparency = 1 - d
			}
		case "usemtl":
			if len(fields) < 2 {
				continue
			}
			active = &group{material: fields[1]}
			groups = append(groups, active)
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs three coordinates", line)
			}
			var v [3]float64
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				v[i] = f * unitsPerMM
			}
			vertices = append(vertices, v)
		case "f":
			face, err := parseFace(fields[1:], len(vertices))
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			if len(groups) == 0 {
				groups = append(groups, active)
			}
			active.faces = append(active.faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(Header + "\n")
	shapes := 0
	for _, g := range groups {
		if len(g.faces) == 0 {
			continue
		}
		writeShape(&out, g, materials[g.material], vertices)
		shapes++
	}
	if shapes == 0 {
		return nil, ErrEmptyMesh
	}
	return out.Bytes(), nil
}

// parseFace reads "f 1/1/1 2/2/2 3/3/3" into zero-based vertex indices.
// Negative indices count back from the last vertex.
func parseFace(specs []string, nverts int) ([]int, error) {
	if len(specs) < 3 {
		return nil, errors.New("face needs at least three vertices")
	}
	face := make([]int, 0, len(specs))
	for _, s := range specs {
		idx, _, _ := strings.Cut(s, "/")
		n, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("face index %q: %w", s, err)
		}
		if n < 0 {
			n = nverts + n + 1
		}
		if n < 1 || n > nverts {
			return nil, fmt.Errorf("face index %d out of range", n)
		}
		face = append(face, n-1)
	}
	return face, nil
}

// writeShape emits one Shape holding only the vertices its faces use.
func writeShape(out *bytes.Buffer, g *group, m *material, vertices [][3]float64) {
	if m == nil {
		m = &material{diffuse: [3]float64{0.8, 0.8, 0.8}}
	}
	remap := map[int]int{}
	var used []int
	for _, f := range g.faces {
		for _, v := range f {
			if _, ok := remap[v]; !ok {
				remap[v] = len(used)
				used = append(used, v)
			}
		}
	}

	fmt.Fprintf(out, "Shape {\n  appearance Appearance {\n    material Material {\n")
	fmt.Fprintf(out, "      diffuseColor %s %s %s\n", num(m.diffuse[0]), num(m.diffuse[1]), num(m.diffuse[2]))
	fmt.Fprintf(out, "      transparency %s\n", num(m.transparency))
	fmt.Fprintf(out, "    }\n  }\n  geometry IndexedFaceSet {\n    coord Coordinate {\n      point [\n")
	for _, v := range used {
		p := vertices[v]
		fmt.Fprintf(out, "        %s %s %s,\n", num(p[0]), num(p[1]), num(p[2]))
	}
	fmt.Fprintf(out, "      ]\n    }\n    coordIndex [\n")
	for _, f := range g.faces {
		out.WriteString("      ")
		for _, v := range f {
			fmt.Fprintf(out, "%d, ", remap[v])
		}
		out.WriteString("-1,\n")
	}
	fmt.Fprintf(out, "    ]\n  }\n}\n")
}

func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
