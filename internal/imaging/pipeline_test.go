package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// noisyImage is deliberately incompressible so the quality loop has work
// to do.
func noisyImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalize_DownscalesWideImages(t *testing.T) {
	p := NewPipeline(Options{MaxWidthPx: 100, MaxBytes: 1 << 20, Dir: t.TempDir()})

	img, err := p.Normalize(encodeJPEG(t, noisyImage(400, 200)))
	assert.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy(), "aspect ratio preserved")
}

func TestNormalize_NeverUpscales(t *testing.T) {
	p := NewPipeline(Options{MaxWidthPx: 1000, MaxBytes: 1 << 20, Dir: t.TempDir()})

	img, err := p.Normalize(encodeJPEG(t, noisyImage(80, 60)))
	assert.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	p := NewPipeline(Options{Dir: t.TempDir()})

	_, err := p.Normalize([]byte("not an image at all"))
	assert.Error(t, err)
}

func TestCompressToBudget_MeetsBudget(t *testing.T) {
	p := NewPipeline(Options{Dir: t.TempDir()})
	img := noisyImage(200, 200)

	budget := 100 * 1024
	buf, quality, err := p.CompressToBudget(img, budget)
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(buf), budget)
	assert.LessOrEqual(t, quality, 90)
	assert.GreaterOrEqual(t, quality, 10)
}

func TestCompressToBudget_ReturnsAtFloorEvenOverBudget(t *testing.T) {
	p := NewPipeline(Options{Dir: t.TempDir()})
	img := noisyImage(400, 400)

	// A budget no JPEG of this size can meet forces the full 90..10 walk.
	buf, quality, err := p.CompressToBudget(img, 64)
	assert.NoError(t, err)
	assert.NotEmpty(t, buf)
	assert.Equal(t, 10, quality)
	assert.Greater(t, len(buf), 64)
}

func TestPersist_WritesAssetWithoutTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(Options{Dir: dir, PublicBase: "/images"})

	asset, err := p.Persist([]byte("jpeg-bytes"), "driver-1")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.Filename, "driver-1_"))
	assert.True(t, strings.HasSuffix(asset.Filename, ".jpg"))
	assert.Equal(t, "/images/"+asset.Filename, asset.PublicURL)
	assert.Equal(t, len("jpeg-bytes"), asset.ByteSize)

	data, err := os.ReadFile(asset.StoragePath)
	assert.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1, "no partial or temp files remain")
}

func TestPersist_FilenamesDoNotCollide(t *testing.T) {
	p := NewPipeline(Options{Dir: t.TempDir()})

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		asset, err := p.Persist([]byte("x"), "driver-1")
		assert.NoError(t, err)
		assert.False(t, seen[asset.Filename])
		seen[asset.Filename] = true
	}
}

func TestProcess_FullRun(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(Options{MaxWidthPx: 320, MaxBytes: 100 * 1024, Dir: dir, PublicBase: "/images"})

	asset, err := p.Process(
		encodeJPEG(t, noisyImage(640, 480)),
		"driver-7",
		[]string{"A Driver (KA-01-1234)", "Depot Gate 2", "01 Sep 2026 09:00:00 IST"},
	)
	assert.NoError(t, err)
	assert.FileExists(t, asset.StoragePath)
	assert.LessOrEqual(t, asset.ByteSize, 100*1024)
}

func TestProcess_WatermarkFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(Options{MaxWidthPx: 320, MaxBytes: 1 << 20, Dir: dir})

	// A 10px-tall image cannot hold the banner, so the watermark step
	// fails; the transition-visible result must still succeed and the
	// unwatermarked asset must remain on disk.
	asset, err := p.Process(
		encodeJPEG(t, noisyImage(320, 10)),
		"driver-7",
		[]string{"line one", "line two", "line three"},
	)
	assert.NoError(t, err)
	assert.FileExists(t, asset.StoragePath)
}

func TestProcess_NoWatermarkLines(t *testing.T) {
	p := NewPipeline(Options{MaxWidthPx: 320, MaxBytes: 1 << 20, Dir: t.TempDir()})

	asset, err := p.Process(encodeJPEG(t, noisyImage(100, 100)), "driver-7", nil)
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(p.opts.Dir, asset.Filename))
}
