package labels

import (
	"image/png"
	"os"
	"testing"

	"Gin_postgres_redis_swab_tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePNG(t *testing.T) {
	s := NewService(t.TempDir())
	bs := models.DefaultBarcodeSettings()
	hash := bs.Hash()

	out, err := s.EnsurePNG("SW-0001", bs, hash)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Positive(t, img.Bounds().Dy())

	// 指纹一致 → 命中缓存，不重渲染
	before, err := os.Stat(out)
	require.NoError(t, err)
	out2, err := s.EnsurePNG("SW-0001", bs, hash)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
	after, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestEnsurePNGRerendersOnSettingsChange(t *testing.T) {
	s := NewService(t.TempDir())
	bs := models.DefaultBarcodeSettings()
	hash := bs.Hash()

	out, err := s.EnsurePNG("SW-0002", bs, hash)
	require.NoError(t, err)
	before, err := os.Stat(out)
	require.NoError(t, err)

	bs.ModuleHeight = bs.ModuleHeight * 2
	hash2 := bs.Hash()
	require.NotEqual(t, hash, hash2)

	out2, err := s.EnsurePNG("SW-0002", bs, hash2)
	require.NoError(t, err)
	require.Equal(t, out, out2)

	after, err := os.Stat(out2)
	require.NoError(t, err)
	assert.Greater(t, after.Size(), before.Size())
}

func TestRemoveMissingIsNoop(t *testing.T) {
	s := NewService(t.TempDir())
	s.Remove("SW-9999") // 不存在也不慌
}
