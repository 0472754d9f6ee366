package mapalign

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/image/bmp"
)

// writePNG writes a blank PNG with the given dimensions and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

func writeBMP(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

// validStaged returns a staged transformer that passes validation as-is.
func validStaged() *Transformer {
	return &Transformer{
		refMap:       MapInfo{Name: "reference", Size: Vector{X: 100, Y: 100}},
		robotMap:     MapInfo{Name: "robot", Size: Vector{X: 80, Y: 110}},
		mapTransform: DefaultMapTransform(),
		refPoints:    []Point{{X: 30, Y: 20}, {X: 40, Y: 50}, {X: 70, Y: 50}},
		robotPoints:  []Point{{X: 0, Y: 0}, {X: 10, Y: 20}, {X: 46, Y: 20}},
	}
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, validStaged().validate())
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transformer)
		wantMsg string
	}{
		{
			name:    "missing reference name",
			mutate:  func(tr *Transformer) { tr.refMap.Name = "" },
			wantMsg: "reference map name is required",
		},
		{
			name:    "missing robot name",
			mutate:  func(tr *Transformer) { tr.robotMap.Name = "" },
			wantMsg: "robot map name is required",
		},
		{
			name:    "no reference points",
			mutate:  func(tr *Transformer) { tr.refPoints = nil },
			wantMsg: "no reference map correspondence points",
		},
		{
			name:    "no robot points",
			mutate:  func(tr *Transformer) { tr.robotPoints = nil },
			wantMsg: "no robot map correspondence points",
		},
		{
			name:    "mismatched point counts",
			mutate:  func(tr *Transformer) { tr.robotPoints = tr.robotPoints[:2] },
			wantMsg: "do not match",
		},
		{
			name:    "missing reference size",
			mutate:  func(tr *Transformer) { tr.refMap.Size = Vector{} },
			wantMsg: "reference map size must be positive",
		},
		{
			name:    "missing robot size",
			mutate:  func(tr *Transformer) { tr.robotMap.Size = Vector{} },
			wantMsg: "robot map size must be positive",
		},
		{
			name: "maps do not overlap",
			mutate: func(tr *Transformer) {
				tr.mapTransform.Translation = Point{X: 10000, Y: 10000}
			},
			wantMsg: "do not overlap",
		},
		{
			name:    "zero x scale",
			mutate:  func(tr *Transformer) { tr.mapTransform.Scale.X = 0 },
			wantMsg: "scale is zero in x",
		},
		{
			name:    "zero y scale",
			mutate:  func(tr *Transformer) { tr.mapTransform.Scale.Y = 0 },
			wantMsg: "scale is zero in y",
		},
		{
			name:    "zero scale both axes",
			mutate:  func(tr *Transformer) { tr.mapTransform.Scale = Vector{} },
			wantMsg: "scale is zero in both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validStaged()
			tt.mutate(tr)
			err := tr.validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestValidateImageMatchingSize(t *testing.T) {
	dir := t.TempDir()
	tr := validStaged()
	tr.refMap.Size = Vector{X: 8, Y: 6}
	tr.refMap.ImageFile = writePNG(t, dir, "ref.png", 8, 6)
	tr.robotMap.Size = Vector{X: 5, Y: 4}
	tr.robotMap.ImageFile = writeBMP(t, dir, "robot.bmp", 5, 4)

	assert.NoError(t, tr.validate())
}

func TestValidateImageSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	tr := validStaged()
	tr.refMap.Size = Vector{X: 9, Y: 6}
	tr.refMap.ImageFile = writePNG(t, dir, "ref.png", 8, 6)

	err := tr.validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorContains(t, err, "do not match declared map size")
}

func TestValidateImageMissing(t *testing.T) {
	tr := validStaged()
	tr.robotMap.ImageFile = filepath.Join(t.TempDir(), "nonexistent.png")

	err := tr.validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorContains(t, err, "robot map image file")
}

func TestValidateImageCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	tr := validStaged()
	tr.refMap.ImageFile = path

	err := tr.validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorContains(t, err, "decoding reference map image")
}
