package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultCategory is used when nothing better is known.
const DefaultCategory = "material"

// ValidCategories is the fixed category set assets are filed under.
var ValidCategories = []string{
	"2d-asset",
	"3d-model",
	"animation",
	"audio",
	"education-tutorial",
	"environment",
	"game-system",
	"game-template",
	"hdri",
	"material",
	"smart-asset",
	"tool-and-plugin",
	"ui",
	"vfx",
}

var categorySynonyms = map[string]string{
	"2d": "2d-asset", "2d-assets": "2d-asset", "2d-graphics": "2d-asset", "graphics": "2d-asset", "images": "2d-asset",
	"3d": "3d-model", "3d-assets": "3d-model", "3d-models": "3d-model", "models": "3d-model", "mesh": "3d-model", "meshes": "3d-model",
	"texture": "material", "textures": "material", "textures-materials": "material", "textures-&-materials": "material", "materials": "material",
	"animations": "animation", "anim": "animation", "anims": "animation", "motion": "animation", "mocap": "animation",
	"sound": "audio", "sounds": "audio", "music": "audio", "sfx": "audio", "audio-files": "audio",
	"env": "environment", "environment-assets": "environment", "environments": "environment", "landscape": "environment", "terrain": "environment",
	"effects": "vfx", "particle": "vfx", "particles": "vfx", "visual-effects": "vfx",
	"interface": "ui", "gui": "ui", "hud": "ui", "menu": "ui", "menus": "ui",
	"gameplay": "game-system", "mechanics": "game-system", "systems": "game-system",
	"tool": "tool-and-plugin", "tools": "tool-and-plugin", "plugin": "tool-and-plugin", "plugins": "tool-and-plugin",
	"utility": "tool-and-plugin", "utilities": "tool-and-plugin",
	"template": "game-template", "templates": "game-template", "blueprint": "game-template", "blueprints": "game-template",
	"tutorial": "education-tutorial", "tutorials": "education-tutorial", "learning": "education-tutorial",
	"course": "education-tutorial", "courses": "education-tutorial",
	"smart": "smart-asset", "intelligent": "smart-asset", "procedural": "smart-asset",
	"hdr": "hdri", "hdri-images": "hdri", "skybox": "hdri", "skyboxes": "hdri",
}

// InferCategory files an asset folder under a valid category. A category or
// asset_type field in a .json file inside the folder wins; otherwise the
// parent folder's name is used.
func InferCategory(folderPath string) string {
	if raw, ok := metadataCategory(folderPath); ok {
		return NormalizeCategory(raw)
	}
	return NormalizeCategory(filepath.Base(filepath.Dir(folderPath)))
}

// NormalizeCategory lowercases raw, dashes its spaces and underscores and
// maps it onto ValidCategories, falling back to DefaultCategory.
func NormalizeCategory(raw string) string {
	c := strings.NewReplacer(" ", "-", "_", "-").Replace(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(ValidCategories, c) {
		return c
	}
	if mapped, ok := categorySynonyms[c]; ok {
		return mapped
	}
	return DefaultCategory
}

func metadataCategory(folderPath string) (string, bool) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(folderPath, entry.Name()))
		if err != nil {
			continue
		}
		var meta struct {
			Category  string `json:"category"`
			AssetType string `json:"asset_type"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		if meta.Category != "" {
			return meta.Category, true
		}
		if meta.AssetType != "" {
			return meta.AssetType, true
		}
	}
	return "", false
}
