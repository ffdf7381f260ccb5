package detection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/stackscan/internal/binstrings"
	"github.com/ternarybob/stackscan/internal/models"
	"github.com/ternarybob/stackscan/internal/refdata"
)

// knownBuildID is present in the bundled build identifier table.
const knownBuildID = "8f89f6505b941329a864fef1527243a72800bf4d"

func testRegistry(t *testing.T) *ExtractorRegistry {
	t.Helper()
	ref, err := refdata.Load(nil)
	require.NoError(t, err)
	return NewExtractorRegistry(binstrings.New(4), ref, nil)
}

// binaryContent joins fragments with null bytes the way strings are laid
// out in a compiled binary.
func binaryContent(fragments ...string) []byte {
	var out []byte
	for _, f := range fragments {
		out = append(out, []byte(f)...)
		out = append(out, 0x00, 0x01, 0x00)
	}
	return out
}

func TestExtractDartVersion(t *testing.T) {
	r := testRegistry(t)

	t.Run("version triplet with stability marker", func(t *testing.T) {
		file := &models.CandidateFile{
			Name:    "libflutter.so",
			Content: binaryContent("garbage", "2.19.6 (stable)", "more"),
		}
		value, err := r.extractDartVersion(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, "2.19.6", value)
	})

	t.Run("triplet without marker is ignored", func(t *testing.T) {
		file := &models.CandidateFile{
			Name:    "libflutter.so",
			Content: binaryContent("1.2.3 something else"),
		}
		value, err := r.extractDartVersion(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("absent content yields nothing", func(t *testing.T) {
		file := &models.CandidateFile{Name: "libflutter.so"}
		value, err := r.extractDartVersion(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestExtractPackages(t *testing.T) {
	r := testRegistry(t)
	file := &models.CandidateFile{
		Name:    "libapp.so",
		Content: binaryContent("package:http", "package:internal_sdk", "package:http"),
	}

	t.Run("published packages", func(t *testing.T) {
		value, err := r.extractPublishedPackages(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"http"}, value)
	})

	t.Run("private packages", func(t *testing.T) {
		value, err := r.extractPrivatePackages(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"internal_sdk"}, value)
	})

	t.Run("no package strings yields nothing", func(t *testing.T) {
		empty := &models.CandidateFile{Name: "libapp.so", Content: binaryContent("no packages here")}
		value, err := r.extractPublishedPackages(context.Background(), empty, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestExtractBuildID(t *testing.T) {
	r := testRegistry(t)

	t.Run("prefers identifier present in the bundled table", func(t *testing.T) {
		file := &models.CandidateFile{
			Name: "libflutter.so",
			Content: binaryContent(
				"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				knownBuildID,
			),
		}
		value, err := r.extractBuildID(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, knownBuildID, value)
	})

	t.Run("falls back to the first candidate", func(t *testing.T) {
		file := &models.CandidateFile{
			Name: "libflutter.so",
			Content: binaryContent(
				"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				"cccccccccccccccccccccccccccccccccccccccc",
			),
		}
		value, err := r.extractBuildID(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", value)
	})

	t.Run("no candidates yields nothing", func(t *testing.T) {
		file := &models.CandidateFile{Name: "libflutter.so", Content: binaryContent("nothing")}
		value, err := r.extractBuildID(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestExtractBuildTimestamp(t *testing.T) {
	r := testRegistry(t)

	t.Run("timestamp from the bundled table", func(t *testing.T) {
		file := &models.CandidateFile{Name: "libflutter.so", Content: binaryContent(knownBuildID)}
		value, err := r.extractBuildTimestamp(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, "2023-06-14T09:23:41Z", value)
	})

	t.Run("identifier absent from the table yields nothing", func(t *testing.T) {
		file := &models.CandidateFile{
			Name:    "libflutter.so",
			Content: binaryContent("dddddddddddddddddddddddddddddddddddddddd"),
		}
		value, err := r.extractBuildTimestamp(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestExtractSymbolSignatures(t *testing.T) {
	r := testRegistry(t)

	file := &models.CandidateFile{
		Name: "libnative.so",
		Content: binaryContent(
			"_ZN7android4BaseD2Ev",
			"Java_com_example_MainActivity_init",
			"plain string",
		),
	}
	value, err := r.extractSymbolSignatures(context.Background(), file, nil)
	require.NoError(t, err)
	require.IsType(t, []string{}, value)
	hits := value.([]string)
	assert.Len(t, hits, 2)
	assert.Contains(t, hits, "_ZN7android4BaseD2Ev")
	assert.Contains(t, hits, "Java_com_example_MainActivity_init")
}

func TestExtractLastModified(t *testing.T) {
	r := testRegistry(t)

	t.Run("passthrough of the modification timestamp", func(t *testing.T) {
		modified := time.Date(2023, 6, 14, 9, 23, 41, 0, time.UTC)
		file := &models.CandidateFile{Name: "libapp.so", ModifiedAt: &modified}
		value, err := r.extractLastModified(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Equal(t, "2023-06-14T09:23:41Z", value)
	})

	t.Run("absent timestamp yields nothing", func(t *testing.T) {
		file := &models.CandidateFile{Name: "libapp.so"}
		value, err := r.extractLastModified(context.Background(), file, nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}
