package scene

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// vec3 is a YAML triple such as [0, 1.5, 3]
type vec3 [3]float64

func (v vec3) toVec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// sceneFile is the YAML scene description
type sceneFile struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Group       string                 `yaml:"group"`
	Image       imageDef               `yaml:"image"`
	Camera      cameraDef              `yaml:"camera"`
	Background  vec3                   `yaml:"background"`
	Materials   map[string]materialDef `yaml:"materials"`
	Spheres     []sphereDef            `yaml:"spheres"`
}

type imageDef struct {
	Width           int `yaml:"width"`
	Height          int `yaml:"height"`
	SamplesPerPixel int `yaml:"samplesPerPixel"`
	MaxDepth        int `yaml:"maxDepth"`
}

type cameraDef struct {
	LookFrom      vec3    `yaml:"lookFrom"`
	LookAt        vec3    `yaml:"lookAt"`
	VUp           *vec3   `yaml:"vUp"`
	VFov          float64 `yaml:"vfov"`
	Aperture      float64 `yaml:"aperture"`
	FocusDistance float64 `yaml:"focusDistance"`
}

type materialDef struct {
	Type            string  `yaml:"type"`
	Albedo          vec3    `yaml:"albedo"`
	Fuzz            float64 `yaml:"fuzz"`
	Attenuation     *vec3   `yaml:"attenuation"`
	RefractiveIndex float64 `yaml:"ior"`
	Emission        vec3    `yaml:"emission"`
}

type sphereDef struct {
	Center   vec3    `yaml:"center"`
	Radius   float64 `yaml:"radius"`
	Material string  `yaml:"material"`
}

// Image defaults for fields a scene file leaves out
const (
	defaultWidth           = 400
	defaultHeight          = 200
	defaultSamplesPerPixel = 50
	defaultMaxDepth        = 50
	defaultVFov            = 40.0
)

// LoadFile reads a YAML scene description from disk. The scene is named
// after the file unless the file sets a name.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scene file %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := load(bytes.NewReader(data), name)
	if err != nil {
		return nil, errors.Wrapf(err, "loading scene file %s", path)
	}
	return s, nil
}

// LoadYAML reads a YAML scene description
func LoadYAML(r io.Reader) (*Scene, error) {
	return load(r, "scene")
}

func load(r io.Reader, fallbackName string) (*Scene, error) {
	var file sceneFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}

	name := file.Name
	if name == "" {
		name = fallbackName
	}

	samplingConfig := MergeSamplingConfig(SamplingConfig{
		Width:           defaultWidth,
		Height:          defaultHeight,
		SamplesPerPixel: defaultSamplesPerPixel,
		MaxDepth:        defaultMaxDepth,
	}, SamplingConfig{
		Width:           file.Image.Width,
		Height:          file.Image.Height,
		SamplesPerPixel: file.Image.SamplesPerPixel,
		MaxDepth:        file.Image.MaxDepth,
	})

	cameraConfig := geometry.CameraConfig{
		LookFrom:      file.Camera.LookFrom.toVec3(),
		LookAt:        file.Camera.LookAt.toVec3(),
		VUp:           core.NewVec3(0, 1, 0),
		VFov:          file.Camera.VFov,
		Aperture:      file.Camera.Aperture,
		FocusDistance: file.Camera.FocusDistance,
	}
	if file.Camera.VUp != nil {
		cameraConfig.VUp = file.Camera.VUp.toVec3()
	}
	if cameraConfig.VFov == 0 {
		cameraConfig.VFov = defaultVFov
	}

	s, err := NewScene(name, cameraConfig, samplingConfig)
	if err != nil {
		return nil, err
	}
	s.Background = file.Background.toVec3()

	// Each named material is built once and shared by every sphere using it
	materials := make(map[string]material.Material, len(file.Materials))
	for matName, def := range file.Materials {
		mat, err := buildMaterial(def)
		if err != nil {
			return nil, errors.Wrapf(err, "material %q", matName)
		}
		materials[matName] = mat
	}

	for i, def := range file.Spheres {
		if def.Radius == 0 {
			return nil, errors.Errorf("sphere %d: radius must be non-zero", i)
		}
		mat, ok := materials[def.Material]
		if !ok {
			return nil, errors.Errorf("sphere %d: unknown material %q", i, def.Material)
		}
		s.AddSphere(def.Center.toVec3(), def.Radius, mat)
	}

	return s, nil
}

// buildMaterial constructs a material from its description
func buildMaterial(def materialDef) (material.Material, error) {
	switch strings.ToLower(def.Type) {
	case "lambertian":
		return material.NewLambertian(def.Albedo.toVec3()), nil
	case "metal":
		return material.NewMetal(def.Albedo.toVec3(), def.Fuzz), nil
	case "glossy":
		return material.NewGlossy(def.Albedo.toVec3()), nil
	case "dielectric":
		if def.RefractiveIndex <= 0 {
			return nil, errors.Errorf("dielectric needs a positive ior, got %v", def.RefractiveIndex)
		}
		attenuation := core.NewVec3(1, 1, 1)
		if def.Attenuation != nil {
			attenuation = def.Attenuation.toVec3()
		}
		return material.NewDielectric(attenuation, def.RefractiveIndex), nil
	case "diffuse_light", "light":
		return material.NewDiffuseLight(def.Emission.toVec3()), nil
	case "":
		return nil, errors.New("missing type")
	default:
		return nil, errors.Errorf("unknown type %q", def.Type)
	}
}
