// Package objfile loads triangle meshes from Wavefront OBJ files.
//
// Only geometry is read: v, vn, vt and f records.  Polygons are split into
// triangle fans.
package objfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/xerrors"

	"octrace/geometry"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error on line %d: %s", e.Line, e.Msg)
}

func Load(name string) (*geometry.MeshData, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, xerrors.Errorf("while opening mesh: %w", err)
	}
	defer f.Close()

	data, err := Parse(f)
	if err != nil {
		return nil, xerrors.Errorf("while loading %s: %w", name, err)
	}
	return data, nil
}

type parser struct {
	data *geometry.MeshData
	line int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) floats(fields []string, min, max int, what string) ([]float64, error) {
	if len(fields) < min || len(fields) > max {
		return nil, p.errorf("invalid %s", what)
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, p.errorf("invalid %s coordinate %q", what, f)
		}
		out[i] = v
	}
	return out, nil
}

// index resolves a 1-based or negative (relative) index against count.
// Empty fields resolve to 0, meaning absent.
func (p *parser) index(field string, count int, what string, required bool) (int, error) {
	if field == "" {
		if required {
			return 0, p.errorf("missing %s index", what)
		}
		return 0, nil
	}
	i, err := strconv.Atoi(field)
	if err != nil {
		return 0, p.errorf("invalid %s index %q", what, field)
	}
	if i < 0 {
		i = count + 1 + i
	}
	if i < 1 || i > count {
		return 0, p.errorf("%s index %s out of range (have %d)", what, field, count)
	}
	return i, nil
}

func (p *parser) corner(field string) (geometry.FaceVertex, error) {
	parts := strings.Split(field, "/")
	if len(parts) > 3 {
		return geometry.FaceVertex{}, p.errorf("invalid face corner %q", field)
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}

	var fv geometry.FaceVertex
	var err error
	if fv.V, err = p.index(parts[0], len(p.data.Vertices), "vertex", true); err != nil {
		return fv, err
	}
	if fv.T, err = p.index(parts[1], len(p.data.TexCoords), "texture", false); err != nil {
		return fv, err
	}
	if fv.N, err = p.index(parts[2], len(p.data.Normals), "normal", false); err != nil {
		return fv, err
	}
	return fv, nil
}

func (p *parser) parseLine(text string) error {
	fields := strings.Fields(text)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "v":
		// An optional w coordinate is ignored.
		c, err := p.floats(fields[1:], 3, 4, "vertex")
		if err != nil {
			return err
		}
		p.data.Vertices = append(p.data.Vertices, vec3.T{c[0], c[1], c[2]})
	case "vn":
		c, err := p.floats(fields[1:], 3, 3, "vertex normal")
		if err != nil {
			return err
		}
		p.data.Normals = append(p.data.Normals, vec3.T{c[0], c[1], c[2]})
	case "vt":
		c, err := p.floats(fields[1:], 2, 3, "vertex texture")
		if err != nil {
			return err
		}
		p.data.TexCoords = append(p.data.TexCoords, vec2.T{c[0], c[1]})
	case "f":
		if len(fields) < 4 {
			return p.errorf("face needs at least 3 corners, got %d", len(fields)-1)
		}
		corners := make([]geometry.FaceVertex, 0, len(fields)-1)
		for _, f := range fields[1:] {
			fv, err := p.corner(f)
			if err != nil {
				return err
			}
			corners = append(corners, fv)
		}
		for i := 1; i+1 < len(corners); i++ {
			p.data.Faces = append(p.data.Faces, [3]geometry.FaceVertex{corners[0], corners[i], corners[i+1]})
		}
	default:
		glog.V(2).Infof("Ignored line %d: %s", p.line, text)
	}
	return nil
}

// Parse reads an OBJ stream.  Errors in the content are *ParseError.
func Parse(r io.Reader) (*geometry.MeshData, error) {
	p := &parser{data: &geometry.MeshData{}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("while reading line %d: %w", p.line+1, err)
	}

	glog.V(1).Infof("Loaded %d vertices, %d vertex normals, %d texture coordinates and %d triangles",
		len(p.data.Vertices), len(p.data.Normals), len(p.data.TexCoords), len(p.data.Faces))
	return p.data, nil
}
