package export

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/matzehuels/garmushka/pkg/cache"
)

func TestCachedPNGReusesRender(t *testing.T) {
	ctx := context.Background()
	e := sampleEngine(t)
	c := cache.NewMemoryCache(4)
	sc := SceneFromEngine(e, nil)
	opts := RasterOptions{Labels: true}

	first, err := CachedPNG(ctx, c, sc, opts, "s1")
	if err != nil {
		t.Fatalf("CachedPNG: %v", err)
	}
	if _, hit, _ := c.Get(ctx, RenderKey(sc, opts, "s1")); !hit {
		t.Fatal("render not cached")
	}
	again, err := CachedPNG(ctx, c, sc, opts, "s1")
	if err != nil || !bytes.Equal(first, again) {
		t.Fatalf("second call differs (err %v)", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	mustAccept(t, e.Select(e.Rows()[1].ID))
	if _, err := CachedPNG(ctx, c, SceneFromEngine(e, nil), opts, "s1"); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("selection change did not produce a new entry: Len = %d", c.Len())
	}
}

func TestRenderKeySource(t *testing.T) {
	sc := SceneFromEngine(sampleEngine(t), nil)
	if RenderKey(sc, RasterOptions{}, "a") != RenderKey(sc, RasterOptions{}, "b") {
		t.Error("source changed the key of a blank sheet")
	}
	sc.Bitmap = image.NewRGBA(image.Rect(0, 0, sc.Width, sc.Height))
	if RenderKey(sc, RasterOptions{}, "a") == RenderKey(sc, RasterOptions{}, "b") {
		t.Error("source ignored for a bitmap scene")
	}
}

func TestCachedSnapshotMatchesSnapshot(t *testing.T) {
	sc := SceneFromEngine(sampleEngine(t), nil)
	got, err := CachedSnapshot(context.Background(), cache.NewNullCache(), sc, 120, 90, "")
	if err != nil {
		t.Fatal(err)
	}
	var want bytes.Buffer
	if err := WritePNG(Snapshot(sc, 120, 90), &want); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want.Bytes()) {
		t.Error("cached snapshot differs from Snapshot")
	}
}
