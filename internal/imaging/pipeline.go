package imaging

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"fleetops/internal/shared/apperror"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	startQuality = 90
	qualityStep  = 10
	qualityFloor = 10
)

// Asset is the durable result of a pipeline run. Fields are never mutated
// after Persist; owning records reference the filename immutably.
type Asset struct {
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
	PublicURL   string `json:"public_url"`
	ByteSize    int    `json:"byte_size"`
}

type Options struct {
	MaxWidthPx int    // resize ceiling, never upscales
	MaxBytes   int    // compression budget, best-effort at the quality floor
	Dir        string // storage directory for persisted assets
	PublicBase string // URL prefix clients use to fetch assets
}

type Pipeline struct {
	opts   Options
	logger *zap.Logger
}

func NewPipeline(opts Options, logger ...*zap.Logger) *Pipeline {
	l := zap.L().Named("imaging.pipeline")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("imaging.pipeline")
	}
	if opts.MaxWidthPx <= 0 {
		opts.MaxWidthPx = 1280
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 200 * 1024
	}
	return &Pipeline{opts: opts, logger: l}
}

// Normalize decodes raw upload bytes, honours EXIF orientation, and caps
// the width at MaxWidthPx preserving aspect ratio. Images already narrower
// are left at their native size.
func (p *Pipeline) Normalize(raw []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "Uploaded image could not be decoded", 400)
	}

	if img.Bounds().Dx() > p.opts.MaxWidthPx {
		img = imaging.Resize(img, p.opts.MaxWidthPx, 0, imaging.Lanczos)
	}

	return img, nil
}

// CompressToBudget re-encodes img as JPEG starting at quality 90 and
// stepping down by 10 until the buffer fits maxBytes or the quality floor
// of 10 has been attempted. The floor attempt is returned even when still
// over budget; the budget is best-effort, not a guarantee.
func (p *Pipeline) CompressToBudget(img image.Image, maxBytes int) ([]byte, int, error) {
	var buf bytes.Buffer

	for q := startQuality; ; q -= qualityStep {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, 0, apperror.Wrap(err, apperror.CodeInternalError, "Image encoding failed", 500)
		}
		if buf.Len() <= maxBytes || q <= qualityFloor {
			if buf.Len() > maxBytes {
				p.logger.Warn("image still over budget at quality floor",
					zap.Int("bytes", buf.Len()),
					zap.Int("max_bytes", maxBytes),
				)
			}
			return buf.Bytes(), q, nil
		}
	}
}

// Persist writes buf under a collision-resistant name via a temp file and
// rename, so a crash mid-write never leaves a partial file under the
// final name.
func (p *Pipeline) Persist(buf []byte, driverID string) (Asset, error) {
	if err := os.MkdirAll(p.opts.Dir, 0o755); err != nil {
		return Asset{}, apperror.Wrap(err, apperror.CodeInternalError, "Image storage unavailable", 500)
	}

	entropy := make([]byte, 4)
	if _, err := rand.Read(entropy); err != nil {
		return Asset{}, apperror.Wrap(err, apperror.CodeInternalError, "Image storage unavailable", 500)
	}
	filename := fmt.Sprintf("%s_%d_%s.jpg", driverID, time.Now().UnixMilli(), hex.EncodeToString(entropy))
	finalPath := filepath.Join(p.opts.Dir, filename)

	tmp, err := os.CreateTemp(p.opts.Dir, ".upload-*")
	if err != nil {
		return Asset{}, apperror.Wrap(err, apperror.CodeInternalError, "Image storage unavailable", 500)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Asset{}, apperror.Wrap(err, apperror.CodeInternalError, "Image write failed", 500)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Asset{}, apperror.Wrap(err, apperror.CodeInternalError, "Image write failed", 500)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return Asset{}, apperror.Wrap(err, apperror.CodeInternalError, "Image write failed", 500)
	}

	return Asset{
		Filename:    filename,
		StoragePath: finalPath,
		PublicURL:   p.opts.PublicBase + "/" + filename,
		ByteSize:    len(buf),
	}, nil
}

// Process runs the full pipeline: normalize, compress to budget, persist,
// then overlay the watermark lines. Watermark failure is logged and
// swallowed; the unwatermarked asset on disk stays valid.
func (p *Pipeline) Process(raw []byte, driverID string, watermarkLines []string) (Asset, error) {
	img, err := p.Normalize(raw)
	if err != nil {
		return Asset{}, err
	}

	buf, quality, err := p.CompressToBudget(img, p.opts.MaxBytes)
	if err != nil {
		return Asset{}, err
	}

	asset, err := p.Persist(buf, driverID)
	if err != nil {
		return Asset{}, err
	}

	p.logger.Debug("image persisted",
		zap.String("filename", asset.Filename),
		zap.Int("bytes", asset.ByteSize),
		zap.Int("quality", quality),
	)

	if len(watermarkLines) > 0 {
		if err := ApplyWatermark(asset.StoragePath, watermarkLines); err != nil {
			p.logger.Warn("watermark failed, keeping unwatermarked image",
				zap.String("filename", asset.Filename),
				zap.Error(err),
			)
		}
	}

	return asset, nil
}
