package export

import (
	"bytes"
	"context"

	"github.com/matzehuels/garmushka/pkg/cache"
	"github.com/matzehuels/garmushka/pkg/shape"
)

// RenderKey identifies the PNG that Render(sc, opts) produces. Bitmap pixels
// are not hashed; source names the bitmap instead, for example a session id.
func RenderKey(sc Scene, opts RasterOptions, source string) string {
	if sc.Bitmap == nil {
		source = ""
	}
	return cache.Key("png", source, sc.Width, sc.Height, shape.EncodeAll(sc.Shapes),
		sc.Calibration.PixelsPerUnit, sc.Mode, sc.View.Aff3(), sc.Selected, sc.Drawing, opts)
}

// CachedPNG returns the encoded render of sc, reusing c's copy when present.
// A failed cache write is not an error; the next call renders again.
func CachedPNG(ctx context.Context, c cache.Cache, sc Scene, opts RasterOptions, source string) ([]byte, error) {
	key := RenderKey(sc, opts, source)
	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		return data, nil
	}
	var buf bytes.Buffer
	if err := WritePNG(Render(sc, opts), &buf); err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, buf.Bytes(), cache.DefaultTTL)
	return buf.Bytes(), nil
}

// CachedSnapshot is [Snapshot] encoded as PNG through c.
func CachedSnapshot(ctx context.Context, c cache.Cache, sc Scene, width, height int, source string) ([]byte, error) {
	fitted, opts := snapshotScene(sc, width, height)
	return CachedPNG(ctx, c, fitted, opts, source)
}
