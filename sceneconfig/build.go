package sceneconfig

import (
	"math"
	"path/filepath"

	"golang.org/x/xerrors"

	"octrace/animation"
	"octrace/camera"
	"octrace/color"
	"octrace/geometry"
	"octrace/light"
	"octrace/material"
	"octrace/objfile"
	"octrace/sample"
	"octrace/scene"
	"octrace/shade"
	"octrace/vmath/vec2"
	"octrace/vmath/vec3"
)

const degToRad = math.Pi / 180

// Output defaults.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
	DefaultFPS    = 24
)

// Setup is everything needed to render a scene document.
type Setup struct {
	Scene  *scene.Scene
	Camera camera.Camera
	Params shade.Params
	Filter sample.Filter
	Jitter sample.Jitter
	Output Output
}

// Build turns the document into renderable objects.  Mesh paths are resolved
// against baseDir.
func (d *Document) Build(baseDir string) (*Setup, error) {
	s := &Setup{
		Scene:  &scene.Scene{},
		Output: d.Output,
	}
	if s.Output.Width <= 0 {
		s.Output.Width = DefaultWidth
	}
	if s.Output.Height <= 0 {
		s.Output.Height = DefaultHeight
	}
	if s.Output.Frames <= 0 {
		s.Output.Frames = 1
	}
	if s.Output.FPS <= 0 {
		s.Output.FPS = DefaultFPS
	}

	var err error
	if s.Params, s.Filter, s.Jitter, err = d.Params.build(); err != nil {
		return nil, xerrors.Errorf("while building params: %w", err)
	}

	if s.Camera, err = d.Camera.build(s.Output); err != nil {
		return nil, xerrors.Errorf("while building camera: %w", err)
	}

	for i, l := range d.Lights {
		built, err := l.build()
		if err != nil {
			return nil, xerrors.Errorf("while building light %d: %w", i, err)
		}
		s.Scene.AddLight(built)
	}

	materials := map[string]material.Material{}
	for name, m := range d.Materials {
		built, err := m.build()
		if err != nil {
			return nil, xerrors.Errorf("while building material %q: %w", name, err)
		}
		materials[name] = built
	}

	for i, o := range d.Objects {
		built, err := o.build(baseDir, materials)
		if err != nil {
			return nil, xerrors.Errorf("while building object %d (%s): %w", i, o.Kind, err)
		}
		s.Scene.AddObject(built)
	}

	return s, nil
}

func (c Color) build(fallback color.Color) (color.Color, error) {
	switch len(c) {
	case 0:
		return fallback, nil
	case 3:
		return color.New(c[0], c[1], c[2], 1), nil
	case 4:
		return color.New(c[0], c[1], c[2], c[3]), nil
	}
	return color.Color{}, xerrors.Errorf("color needs 3 or 4 components, got %d", len(c))
}

func (v Vec3) vec() vec3.T {
	return vec3.T(v)
}

func (v Vec3) radians() vec3.T {
	return vec3.MulVS(vec3.T(v), degToRad)
}

// buildVec3Anim scales every component by scale, or returns nil if a is nil.
func buildVec3Anim(a *Anim[Vec3], scale float64) animation.Animation[vec3.T] {
	if a == nil {
		return nil
	}
	linear := func(l Linear[Vec3]) animation.Vec3Linear {
		return animation.Vec3Linear{
			Initial: vec3.MulVS(l.Initial.vec(), scale),
			Delta:   vec3.MulVS(l.Delta.vec(), scale),
		}
	}
	if len(a.Sequence) == 0 {
		if a.Linear == nil {
			return nil
		}
		return linear(*a.Linear)
	}
	seq := &animation.Sequence[vec3.T]{}
	for _, k := range a.Sequence {
		seq.Add(linear(k.Linear), k.Start)
	}
	return seq
}

func buildScalarAnim(a *Anim[float64]) animation.Animation[float64] {
	if a == nil {
		return nil
	}
	linear := func(l Linear[float64]) animation.ScalarLinear {
		return animation.ScalarLinear{Initial: l.Initial, Delta: l.Delta}
	}
	if len(a.Sequence) == 0 {
		if a.Linear == nil {
			return nil
		}
		return linear(*a.Linear)
	}
	seq := &animation.Sequence[float64]{}
	for _, k := range a.Sequence {
		seq.Add(linear(k.Linear), k.Start)
	}
	return seq
}

func (p *ParamsDoc) build() (shade.Params, sample.Filter, sample.Jitter, error) {
	params := shade.DefaultParams()
	if p.MaxDepth != nil {
		if *p.MaxDepth < 0 {
			return params, nil, nil, xerrors.Errorf("bad max_depth %d", *p.MaxDepth)
		}
		params.MaxDepth = *p.MaxDepth
	}

	var err error
	if params.Background, err = p.Background.build(params.Background); err != nil {
		return params, nil, nil, xerrors.Errorf("background: %w", err)
	}
	if params.Indirect, err = p.Indirect.build(params.Indirect); err != nil {
		return params, nil, nil, xerrors.Errorf("indirect: %w", err)
	}
	if params.Ambient, err = p.Ambient.build(params.Ambient); err != nil {
		return params, nil, nil, xerrors.Errorf("ambient: %w", err)
	}
	if p.AmbientWeight != nil {
		params.AmbientWeight = *p.AmbientWeight
	}
	if p.DiffuseWeight != nil {
		params.DiffuseWeight = *p.DiffuseWeight
	}

	params.Strategy = shade.Phong{}
	if p.Shading != nil {
		if params.Strategy, err = p.Shading.build(); err != nil {
			return params, nil, nil, err
		}
	}

	var filter sample.Filter = sample.Box{}
	if p.Filter != nil {
		switch p.Filter.Kind {
		case "", "box":
			if p.Filter.Radius < 0 {
				return params, nil, nil, xerrors.Errorf("box filter radius must not be negative, got %v", p.Filter.Radius)
			}
			filter = sample.Box{Radius: p.Filter.Radius}
		case "gauss":
			if p.Filter.Radius <= 0 {
				return params, nil, nil, xerrors.Errorf("gauss filter needs a positive radius, got %v", p.Filter.Radius)
			}
			filter = sample.Gauss{Radius: p.Filter.Radius}
		default:
			return params, nil, nil, xerrors.Errorf("unknown filter kind %q", p.Filter.Kind)
		}
	}

	var jitter sample.Jitter = sample.None{}
	if p.Jitter != nil {
		switch p.Jitter.Kind {
		case "", "none":
		case "random":
			r := sample.DefaultRandom()
			if p.Jitter.Size != nil {
				r.Size = *p.Jitter.Size
			}
			if p.Jitter.Samples != nil {
				r.Samples = *p.Jitter.Samples
			}
			if r.Samples < 1 {
				return params, nil, nil, xerrors.Errorf("random jitter needs at least one sample, got %d", r.Samples)
			}
			jitter = r
		default:
			return params, nil, nil, xerrors.Errorf("unknown jitter kind %q", p.Jitter.Kind)
		}
	}

	return params, filter, jitter, nil
}

func (s *ShadingDoc) build() (shade.Strategy, error) {
	switch s.Kind {
	case "none":
		return nil, nil
	case "", "phong":
		return shade.Phong{}, nil
	case "debug_axis":
		scale := s.Scale
		if scale == 0 {
			scale = 1
		}
		return &shade.DebugAxis{Axis: s.Axis.vec(), Scale: scale, Offset: s.Offset}, nil
	case "debug_normal":
		modes := map[string]shade.NormalMode{
			"":     shade.NormalXZ,
			"xz":   shade.NormalXZ,
			"y":    shade.NormalY,
			"both": shade.NormalBoth,
		}
		mode, ok := modes[s.Mode]
		if !ok {
			return nil, xerrors.Errorf("unknown debug_normal mode %q", s.Mode)
		}
		return &shade.DebugNormal{Mode: mode}, nil
	}
	return nil, xerrors.Errorf("unknown shading kind %q", s.Kind)
}

func (c *CameraDoc) build(out Output) (camera.Camera, error) {
	aspect := float64(out.Width) / float64(out.Height)

	switch c.Kind {
	case "", "perspective":
		cam := &camera.Perspective{
			Position:     c.Position.vec(),
			Rotation:     c.Rotation.radians(),
			Width:        c.Width,
			Height:       c.Height,
			Distance:     c.Distance,
			PositionAnim: buildVec3Anim(c.PositionAnim, 1),
			RotationAnim: buildVec3Anim(c.RotationAnim, degToRad),
		}
		if cam.Height == 0 {
			cam.Height = 1
		}
		if cam.Width == 0 {
			cam.Width = cam.Height * aspect
		}
		if cam.Distance == 0 {
			cam.Distance = 1
		}
		return cam, nil

	case "orthographic":
		cam := &camera.Orthographic{Width: c.Width, Height: c.Height}
		if c.Scale > 0 {
			cam = camera.NewOrthographicScaled(c.Scale, out.Width, out.Height)
		}
		if cam.Width <= 0 || cam.Height <= 0 {
			return nil, xerrors.Errorf("orthographic camera needs a scale or a width and height")
		}
		cam.Position = c.Position.vec()
		cam.Rotation = c.Rotation.radians()
		cam.PositionAnim = buildVec3Anim(c.PositionAnim, 1)
		cam.RotationAnim = buildVec3Anim(c.RotationAnim, degToRad)
		return cam, nil
	}

	return nil, xerrors.Errorf("unknown camera kind %q", c.Kind)
}

func (l *LightDoc) build() (light.Light, error) {
	c, err := l.Color.build(color.White())
	if err != nil {
		return nil, err
	}

	switch l.Kind {
	case "", "spot":
		return &light.Spot{
			Position:     l.Position.vec(),
			Color:        c,
			PositionAnim: buildVec3Anim(l.PositionAnim, 1),
		}, nil

	case "cone":
		if l.Direction == (Vec3{}) {
			return nil, xerrors.Errorf("cone light needs a direction")
		}
		return &light.Cone{
			Position:      l.Position.vec(),
			Direction:     l.Direction.vec(),
			Angle:         l.Angle * degToRad,
			Color:         c,
			PositionAnim:  buildVec3Anim(l.PositionAnim, 1),
			DirectionAnim: buildVec3Anim(l.DirectionAnim, 1),
		}, nil
	}

	return nil, xerrors.Errorf("unknown light kind %q", l.Kind)
}

func orFloat(v *float32, fallback float32) float32 {
	if v == nil {
		return fallback
	}
	return *v
}

func (m *MaterialDoc) build() (material.Material, error) {
	surface := &material.Surface{
		Diffuse:     orFloat(m.Diffuse, 1),
		Specular:    orFloat(m.Specular, 0),
		Roughness:   orFloat(m.Roughness, 1),
		Reflectance: orFloat(m.Reflectance, 0),
	}

	c, err := m.PatternDoc.build()
	if err != nil {
		return nil, err
	}
	surface.Color = c

	return surface, nil
}

func (p *PatternDoc) build() (material.ColorMap, error) {
	switch p.Kind {
	case "", "simple":
		c, err := p.Color.build(color.White())
		if err != nil {
			return nil, err
		}
		return material.Constant(c), nil

	case "checkerboard":
		if len(p.Colors) != 2 {
			return nil, xerrors.Errorf("checkerboard needs 2 colors, got %d", len(p.Colors))
		}
		var colors [2]color.Color
		for i, c := range p.Colors {
			built, err := c.build(color.White())
			if err != nil {
				return nil, err
			}
			colors[i] = built
		}
		scale := vec2.T{1, 1}
		if p.Scale != nil {
			scale = vec2.T(*p.Scale)
		}
		if scale[0] == 0 || scale[1] == 0 {
			return nil, xerrors.Errorf("checkerboard scale must be non-zero, got %v", scale)
		}
		return material.Checkerboard(colors, scale), nil

	case "lerp", "switch":
		if p.T == nil || p.A == nil || p.B == nil {
			return nil, xerrors.Errorf("%s needs t, a and b", p.Kind)
		}
		t, err := p.T.build()
		if err != nil {
			return nil, xerrors.Errorf("%s t: %w", p.Kind, err)
		}
		a, err := p.A.build()
		if err != nil {
			return nil, xerrors.Errorf("%s a: %w", p.Kind, err)
		}
		b, err := p.B.build()
		if err != nil {
			return nil, xerrors.Errorf("%s b: %w", p.Kind, err)
		}
		if p.Kind == "lerp" {
			return material.Lerp(t, a, b), nil
		}
		return material.Switch(p.Threshold, t, a, b), nil
	}
	return nil, xerrors.Errorf("unknown material kind %q", p.Kind)
}

func (s *ScalarDoc) build() (material.ScalarMap, error) {
	var m material.ScalarMap
	switch s.Kind {
	case "", "constant":
		m = material.ConstantScalar(s.Value)
	case "bullseye":
		if s.Period <= 0 {
			return nil, xerrors.Errorf("bullseye period must be positive, got %v", s.Period)
		}
		m = material.Bullseye(s.Period)
	default:
		return nil, xerrors.Errorf("unknown scalar kind %q", s.Kind)
	}
	if s.Clamp != nil {
		if s.Clamp[0] > s.Clamp[1] {
			return nil, xerrors.Errorf("clamp range %v is empty", *s.Clamp)
		}
		m = material.Clamp(s.Clamp[0], s.Clamp[1], m)
	}
	return m, nil
}

func lookupMaterial(materials map[string]material.Material, name string) (material.Material, error) {
	if name == "" {
		return material.Simple(color.White()), nil
	}
	m, ok := materials[name]
	if !ok {
		return nil, xerrors.Errorf("unknown material %q", name)
	}
	return m, nil
}

func (o *ObjectDoc) build(baseDir string, materials map[string]material.Material) (geometry.Geometry, error) {
	m, err := lookupMaterial(materials, o.Material)
	if err != nil {
		return nil, err
	}

	switch o.Kind {
	case "plane":
		return &geometry.Plane{
			Center:     o.Center.vec(),
			U:          o.U.vec(),
			V:          o.V.vec(),
			Material:   m,
			CenterAnim: buildVec3Anim(o.CenterAnim, 1),
		}, nil

	case "box":
		faces := []material.Material{m}
		if len(o.Materials) > 0 {
			if len(o.Materials) != 1 && len(o.Materials) != 6 {
				return nil, xerrors.Errorf("box needs 1 or 6 materials, got %d", len(o.Materials))
			}
			faces = nil
			for _, name := range o.Materials {
				fm, err := lookupMaterial(materials, name)
				if err != nil {
					return nil, err
				}
				faces = append(faces, fm)
			}
		}
		return &geometry.Box{
			Center:       o.Center.vec(),
			Size:         o.Size.vec(),
			Rotation:     o.Rotation.radians(),
			Materials:    faces,
			CenterAnim:   buildVec3Anim(o.CenterAnim, 1),
			RotationAnim: buildVec3Anim(o.RotationAnim, degToRad),
			SizeAnim:     buildVec3Anim(o.SizeAnim, 1),
		}, nil

	case "sphere":
		return &geometry.Sphere{
			Center:       o.Center.vec(),
			Radius:       o.Radius,
			Rotation:     o.Rotation.radians(),
			Material:     m,
			CenterAnim:   buildVec3Anim(o.CenterAnim, 1),
			RotationAnim: buildVec3Anim(o.RotationAnim, degToRad),
			RadiusAnim:   buildScalarAnim(o.RadiusAnim),
		}, nil

	case "mesh":
		if o.Path == "" {
			return nil, xerrors.Errorf("mesh needs a path")
		}
		path := o.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := objfile.Load(path)
		if err != nil {
			return nil, err
		}

		mesh := geometry.NewMesh(data, m)
		mesh.Position = o.Position.vec()
		mesh.Rotation = o.Rotation.radians()
		mesh.Offset = o.Offset.vec()
		if o.Scale != nil {
			mesh.Scale = o.Scale.vec()
		}
		switch o.Shading {
		case "", "flat":
			mesh.Shading = geometry.Flat
		case "smooth":
			mesh.Shading = geometry.Smooth
		case "interpolated":
			mesh.Shading = geometry.Interpolated
		default:
			return nil, xerrors.Errorf("unknown mesh shading %q", o.Shading)
		}
		mesh.PositionAnim = buildVec3Anim(o.PositionAnim, 1)
		mesh.RotationAnim = buildVec3Anim(o.RotationAnim, degToRad)
		mesh.ScaleAnim = buildVec3Anim(o.ScaleAnim, 1)
		return mesh, nil
	}

	return nil, xerrors.Errorf("unknown object kind %q", o.Kind)
}
