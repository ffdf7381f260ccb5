package detection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/stackscan/internal/models"
)

func TestExtractorRegistry_BuiltIns(t *testing.T) {
	r := NewExtractorRegistry(nil, nil, nil)

	builtins := []string{
		ExtractorDartVersion,
		ExtractorDartPackagesPublished,
		ExtractorDartPackagesPrivate,
		ExtractorFlutterBuildID,
		ExtractorFlutterBuildTimestamp,
		ExtractorSymbolSignatures,
		ExtractorFileLastModified,
	}
	for _, name := range builtins {
		_, ok := r.Get(name)
		assert.True(t, ok, "built-in %s should be registered", name)
	}

	assert.Len(t, r.Names(), len(builtins))
}

func TestExtractorRegistry_Register(t *testing.T) {
	r := NewExtractorRegistry(nil, nil, nil)

	custom := func(ctx context.Context, file *models.CandidateFile, pattern *models.MetadataPattern) (any, error) {
		return "custom-value", nil
	}

	t.Run("runtime registration", func(t *testing.T) {
		require.NoError(t, r.Register("my_extractor", custom))

		fn, ok := r.Get("my_extractor")
		require.True(t, ok)
		value, err := fn(context.Background(), &models.CandidateFile{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "custom-value", value)
	})

	t.Run("registry is append-only", func(t *testing.T) {
		err := r.Register("my_extractor", custom)
		require.Error(t, err)

		err = r.Register(ExtractorDartVersion, custom)
		require.Error(t, err)
	})

	t.Run("rejects empty name and nil function", func(t *testing.T) {
		assert.Error(t, r.Register("", custom))
		assert.Error(t, r.Register("nil_fn", nil))
	})
}
