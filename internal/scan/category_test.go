package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Animation", "animation"},
		{"3D Model", "3d-model"},
		{"tool_and_plugin", "tool-and-plugin"},
		{"Textures", "material"},
		{"MoCap", "animation"},
		{"Skyboxes", "hdri"},
		{"Blueprints", "game-template"},
		{"Sound", "audio"},
		{"something odd", DefaultCategory},
		{"", DefaultCategory},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.raw))
		})
	}
}

func TestNormalizeCategory_AlwaysValid(t *testing.T) {
	for _, raw := range []string{"x", "HDR", "Particles", "menus", "courses", "procedural", "unknown thing"} {
		assert.Contains(t, ValidCategories, NormalizeCategory(raw))
	}
}

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(path, 0o755))
	return path
}

func TestInferCategory_FromMetadata(t *testing.T) {
	root := t.TempDir()
	folder := mkdir(t, root, "Audio", "Spell Pack")
	require.NoError(t, os.WriteFile(filepath.Join(folder, "readme.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "meta.json"), []byte(`{"category": "Visual Effects"}`), 0o644))

	// "visual-effects" maps to vfx; the parent folder is ignored
	assert.Equal(t, "vfx", InferCategory(folder))
}

func TestInferCategory_AssetTypeField(t *testing.T) {
	root := t.TempDir()
	folder := mkdir(t, root, "Misc", "Hero")
	require.NoError(t, os.WriteFile(filepath.Join(folder, "asset.json"), []byte(`{"asset_type": "Meshes"}`), 0o644))

	assert.Equal(t, "3d-model", InferCategory(folder))
}

func TestInferCategory_FromParentFolder(t *testing.T) {
	root := t.TempDir()
	folder := mkdir(t, root, "Animations", "Mage Animation Set (4 18)")

	assert.Equal(t, "animation", InferCategory(folder))
}
