// Package sceneconfig reads YAML scene descriptions.
//
// Lengths are in world units and angles are in degrees.  Colors are
// [r, g, b] or [r, g, b, a] lists and vectors are [x, y, z] lists.
package sceneconfig

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

type Document struct {
	Output    Output                 `yaml:"output"`
	Params    ParamsDoc              `yaml:"params"`
	Camera    CameraDoc              `yaml:"camera"`
	Lights    []LightDoc             `yaml:"lights"`
	Materials map[string]MaterialDoc `yaml:"materials"`
	Objects   []ObjectDoc            `yaml:"objects"`
}

type Output struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Frames int `yaml:"frames"`
	FPS    int `yaml:"fps"`
}

type Vec3 [3]float64

type Color []float32

type ParamsDoc struct {
	MaxDepth      *int     `yaml:"max_depth"`
	Background    Color    `yaml:"background"`
	Indirect      Color    `yaml:"indirect"`
	Ambient       Color    `yaml:"ambient"`
	AmbientWeight *float32 `yaml:"ambient_weight"`
	DiffuseWeight *float32 `yaml:"diffuse_weight"`

	Jitter  *JitterDoc  `yaml:"jitter"`
	Filter  *FilterDoc  `yaml:"filter"`
	Shading *ShadingDoc `yaml:"shading"`
}

type JitterDoc struct {
	Kind    string   `yaml:"kind"`
	Size    *float64 `yaml:"size"`
	Samples *int     `yaml:"samples"`
}

type FilterDoc struct {
	Kind   string  `yaml:"kind"`
	Radius float64 `yaml:"radius"`
}

type ShadingDoc struct {
	Kind string `yaml:"kind"`

	// debug_axis
	Axis   Vec3    `yaml:"axis"`
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"`

	// debug_normal: xz, y or both.
	Mode string `yaml:"mode"`
}

// Linear is Initial + Delta * frame.
type Linear[V any] struct {
	Initial V `yaml:"initial"`
	Delta   V `yaml:"delta"`
}

// Key is a linear segment that takes over at frame Start.
type Key[V any] struct {
	Start  int       `yaml:"start"`
	Linear Linear[V] `yaml:"linear"`
}

// Anim holds either a single linear segment or a sequence of them.
type Anim[V any] struct {
	Linear   *Linear[V] `yaml:"linear"`
	Sequence []Key[V]   `yaml:"sequence"`
}

type CameraDoc struct {
	Kind     string  `yaml:"kind"`
	Position Vec3    `yaml:"position"`
	Rotation Vec3    `yaml:"rotation"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Distance float64 `yaml:"distance"`

	// Scale sizes an orthographic camera by its height, keeping the
	// output aspect ratio.
	Scale float64 `yaml:"scale"`

	PositionAnim *Anim[Vec3] `yaml:"position_anim"`
	RotationAnim *Anim[Vec3] `yaml:"rotation_anim"`
}

type LightDoc struct {
	Kind      string  `yaml:"kind"`
	Position  Vec3    `yaml:"position"`
	Direction Vec3    `yaml:"direction"`
	Angle     float64 `yaml:"angle"`
	Color     Color   `yaml:"color"`

	PositionAnim  *Anim[Vec3] `yaml:"position_anim"`
	DirectionAnim *Anim[Vec3] `yaml:"direction_anim"`
}

// PatternDoc describes a color map.  Kind is simple (the default),
// checkerboard, lerp or switch.  Lerp and switch combine the patterns A
// and B under the scalar T.
type PatternDoc struct {
	Kind   string      `yaml:"kind"`
	Color  Color       `yaml:"color"`
	Colors []Color     `yaml:"colors"`
	Scale  *[2]float64 `yaml:"scale"`

	T         *ScalarDoc  `yaml:"t"`
	Threshold float64     `yaml:"threshold"`
	A         *PatternDoc `yaml:"a"`
	B         *PatternDoc `yaml:"b"`
}

// ScalarDoc describes a scalar map: a constant value or bullseye rings
// of the given period, optionally clamped to [clamp[0], clamp[1]].
type ScalarDoc struct {
	Kind   string      `yaml:"kind"`
	Value  float64     `yaml:"value"`
	Period float64     `yaml:"period"`
	Clamp  *[2]float64 `yaml:"clamp"`
}

type MaterialDoc struct {
	PatternDoc `yaml:",inline"`

	Diffuse     *float32 `yaml:"diffuse"`
	Specular    *float32 `yaml:"specular"`
	Roughness   *float32 `yaml:"roughness"`
	Reflectance *float32 `yaml:"reflectance"`
}

type ObjectDoc struct {
	Kind string `yaml:"kind"`

	// Material names an entry of the materials section.  Boxes may list
	// one material per face instead.
	Material  string   `yaml:"material"`
	Materials []string `yaml:"materials"`

	Center   Vec3    `yaml:"center"`
	Size     Vec3    `yaml:"size"`
	Rotation Vec3    `yaml:"rotation"`
	Radius   float64 `yaml:"radius"`
	U        Vec3    `yaml:"u"`
	V        Vec3    `yaml:"v"`

	// Mesh fields.  Path is relative to the scene file.
	Path     string `yaml:"path"`
	Position Vec3   `yaml:"position"`
	Scale    *Vec3  `yaml:"scale"`
	Offset   Vec3   `yaml:"offset"`
	Shading  string `yaml:"shading"`

	CenterAnim   *Anim[Vec3]    `yaml:"center_anim"`
	RotationAnim *Anim[Vec3]    `yaml:"rotation_anim"`
	SizeAnim     *Anim[Vec3]    `yaml:"size_anim"`
	RadiusAnim   *Anim[float64] `yaml:"radius_anim"`
	PositionAnim *Anim[Vec3]    `yaml:"position_anim"`
	ScaleAnim    *Anim[Vec3]    `yaml:"scale_anim"`
}

// Parse decodes a scene document.  Unknown fields are errors.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	doc := &Document{}
	if err := dec.Decode(doc); err != nil && err != io.EOF {
		return nil, xerrors.Errorf("while decoding scene: %w", err)
	}
	return doc, nil
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("while reading scene: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, xerrors.Errorf("while loading %s: %w", path, err)
	}
	return doc, nil
}
