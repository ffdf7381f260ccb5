package detection

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/stackscan/internal/models"
)

func writeRules(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func newTestEngine(t *testing.T, doc string) *Engine {
	t.Helper()
	engine, err := NewEngine(Options{
		RulesPath: writeRules(t, doc),
		Registry:  NewExtractorRegistry(nil, nil, nil),
	})
	require.NoError(t, err)
	return engine
}

const orderingRules = `
version: "1.0"
detections:
  - id: flutter-engine
    name: Flutter Engine
    type: Flutter
    confidence: 0.9
    fileRules:
      - kind: filename
        patterns: ['^libflutter\.so$']
  - id: native-so
    name: Native Library
    type: NativeLibrary
    confidence: 0.6
    fileRules:
      - kind: extension
        extensions: ['.so']
excludes:
  - kind: path
    pattern: '^META-INF/'
`

func TestEngine_DetectFile(t *testing.T) {
	engine := newTestEngine(t, orderingRules)
	ctx := context.Background()

	t.Run("multiple matches sorted by descending confidence", func(t *testing.T) {
		file := &models.CandidateFile{
			Name: "libflutter.so",
			Path: "lib/arm64-v8a/libflutter.so",
			Size: 1024,
		}

		result := engine.DetectFile(ctx, file)
		require.Len(t, result.Detections, 2)
		assert.Equal(t, "flutter-engine", result.Detections[0].RuleID)
		assert.InDelta(t, 0.9, result.Detections[0].Confidence, 1e-9)
		assert.Equal(t, "native-so", result.Detections[1].RuleID)
		assert.InDelta(t, 0.6, result.Detections[1].Confidence, 1e-9)
		assert.Equal(t, "libflutter.so", result.Name)
		assert.Equal(t, int64(1024), result.Size)
	})

	t.Run("excluded file skips all rules", func(t *testing.T) {
		file := &models.CandidateFile{
			Name: "libflutter.so",
			Path: "META-INF/libflutter.so",
		}

		result := engine.DetectFile(ctx, file)
		assert.Empty(t, result.Detections)
		assert.Equal(t, "libflutter.so", result.Name)
	})

	t.Run("no match yields empty detections", func(t *testing.T) {
		file := &models.CandidateFile{Name: "readme.txt", Path: "assets/readme.txt"}
		result := engine.DetectFile(ctx, file)
		assert.Empty(t, result.Detections)
	})

	t.Run("detection is idempotent", func(t *testing.T) {
		file := &models.CandidateFile{Name: "libflutter.so", Path: "lib/libflutter.so"}

		first := engine.DetectFile(ctx, file)
		second := engine.DetectFile(ctx, file)
		assert.Equal(t, first.Detections, second.Detections)
	})
}

func TestEngine_DetectFiles(t *testing.T) {
	engine := newTestEngine(t, orderingRules)

	files := []*models.CandidateFile{
		{Name: "libflutter.so", Path: "lib/arm64-v8a/libflutter.so"},
		{Name: "readme.txt", Path: "assets/readme.txt"},
		{Name: "libnative.so", Path: "lib/arm64-v8a/libnative.so"},
	}

	results := engine.DetectFiles(context.Background(), files)
	require.Len(t, results, len(files))
	assert.Equal(t, "libflutter.so", results[0].Name)
	assert.NotEmpty(t, results[0].Detections)
	assert.Empty(t, results[1].Detections)
	assert.Equal(t, "NativeLibrary", results[2].Detections[0].Type)
}

func TestEngine_Configuration(t *testing.T) {
	t.Run("embedded default rules load", func(t *testing.T) {
		engine, err := NewEngine(Options{Registry: NewExtractorRegistry(nil, nil, nil)})
		require.NoError(t, err)
		assert.NotEmpty(t, engine.Rules())
	})

	t.Run("missing version is rejected", func(t *testing.T) {
		_, err := NewEngine(Options{
			RulesPath: writeRules(t, "detections:\n  - id: x\n    name: X\n    type: X\n    confidence: 0.5\n    fileRules:\n      - kind: extension\n        extensions: ['.so']\n"),
			Registry:  NewExtractorRegistry(nil, nil, nil),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "version")
	})

	t.Run("out-of-range confidence names the rule", func(t *testing.T) {
		_, err := NewEngine(Options{
			RulesPath: writeRules(t, "version: \"1.0\"\ndetections:\n  - id: bad-rule\n    name: Bad\n    type: Bad\n    confidence: 1.5\n    fileRules:\n      - kind: extension\n        extensions: ['.so']\n"),
			Registry:  NewExtractorRegistry(nil, nil, nil),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad-rule")
	})

	t.Run("unreadable path fails construction", func(t *testing.T) {
		_, err := NewEngine(Options{
			RulesPath: filepath.Join(t.TempDir(), "absent.yaml"),
			Registry:  NewExtractorRegistry(nil, nil, nil),
		})
		require.Error(t, err)
	})

	t.Run("invalid exclude pattern is skipped, not fatal", func(t *testing.T) {
		engine, err := NewEngine(Options{
			RulesPath: writeRules(t, orderingRules+"  - kind: path\n    pattern: '(['\n"),
			Registry:  NewExtractorRegistry(nil, nil, nil),
		})
		require.NoError(t, err)

		file := &models.CandidateFile{Name: "libflutter.so", Path: "lib/libflutter.so"}
		result := engine.DetectFile(context.Background(), file)
		assert.NotEmpty(t, result.Detections)
	})
}

// End to end over the bundled default rules with the real extractor
// stack behind the registry.
func TestEngine_FlutterScenario(t *testing.T) {
	engine, err := NewEngine(Options{Registry: testRegistry(t)})
	require.NoError(t, err)

	file := &models.CandidateFile{
		Folder: "lib/arm64-v8a",
		Name:   "libflutter.so",
		Path:   "lib/arm64-v8a/libflutter.so",
		Size:   4096,
		Content: binaryContent(
			"2.19.6 (stable)",
			knownBuildID,
			"package:http",
			"package:internal_sdk",
		),
	}

	result := engine.DetectFile(context.Background(), file)
	require.NotEmpty(t, result.Detections)

	primary := result.Detections[0]
	assert.Equal(t, "flutter-engine", primary.RuleID)
	require.NotNil(t, primary.Metadata)
	assert.Equal(t, "2.19.6", primary.Metadata["dartVersion"])
	assert.Equal(t, knownBuildID, primary.Metadata["flutterHex40"])
	assert.Equal(t, []string{"http"}, primary.Metadata["publishedPackages"])
	assert.Equal(t, []string{"internal_sdk"}, primary.Metadata["privatePackages"])
}
