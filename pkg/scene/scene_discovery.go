package scene

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "yaml"
	FilePath    string `json:"filePath"`    // Path to scene file (yaml type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const (
	builtinGroup = "Built-in Scenes"
	fileGroup    = "Scene Files"
)

// ListYAMLScenes scans dir for *.yaml scene files. A missing directory
// yields an empty list.
func ListYAMLScenes(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan scenes directory")
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		scenes = append(scenes, ParseSceneMetadata(filePath))
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ParseSceneMetadata reads the name, description and group of a scene file,
// falling back to values derived from the file name
func ParseSceneMetadata(filePath string) SceneInfo {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:       "yaml:" + nameWithoutExt,
		Name:     titleCase(nameWithoutExt),
		Group:    fileGroup,
		Type:     "yaml",
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info
	}

	// Only the header fields matter here; the rest is validated on load
	var header struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Group       string `yaml:"group"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return info
	}

	if header.Name != "" {
		info.Name = header.Name
	}
	if header.Group != "" {
		info.Group = header.Group
	}
	info.Description = header.Description
	return info
}

// ListAllScenes returns both built-in and file scenes, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	var allScenes []SceneInfo
	for _, name := range BuiltinNames() {
		allScenes = append(allScenes, SceneInfo{
			ID:          name,
			Name:        titleCase(name),
			Description: builtins[name].description,
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}

	fileScenes, err := ListYAMLScenes(dir)
	if err != nil {
		return response, errors.Wrap(err, "failed to list scene files")
	}
	allScenes = append(allScenes, fileScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)
	groupNames = append([]string{builtinGroup}, groupNames...)

	for _, groupName := range groupNames {
		if scenes, ok := groupMap[groupName]; ok {
			response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: scenes})
		}
	}

	return response, nil
}

// Resolve returns a built-in scene by ID, or loads a "yaml:<name>" scene from dir
func Resolve(id, dir string, overrides ...SamplingConfig) (*Scene, error) {
	name, isFile := strings.CutPrefix(id, "yaml:")
	if !isFile {
		return ByName(id, overrides...)
	}
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, errors.Errorf("invalid scene file name %q", name)
	}

	s, err := LoadFile(filepath.Join(dir, name+".yaml"))
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		if err := s.Override(override); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// titleCase converts a filename-style string to title case
// e.g., "lit-sphere" -> "Lit Sphere"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
