package mapalign

import (
	"fmt"
	"image"
	"os"

	"github.com/paulmach/orb"

	// Image formats accepted for map image dimension checks.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// validate checks a staged transformer before it is committed. Checks run in
// a fixed order and the first failure wins: map names, correspondence lists,
// map sizes, map overlap, scale, image files. The live transformer is never
// touched.
func (t *Transformer) validate() error {
	if t.refMap.Name == "" {
		return fmt.Errorf("%w: reference map name is required", ErrInvalidDocument)
	}
	if t.robotMap.Name == "" {
		return fmt.Errorf("%w: robot map name is required", ErrInvalidDocument)
	}

	if len(t.refPoints) == 0 {
		return fmt.Errorf("%w: no reference map correspondence points provided", ErrInvalidDocument)
	}
	if len(t.robotPoints) == 0 {
		return fmt.Errorf("%w: no robot map correspondence points provided", ErrInvalidDocument)
	}
	if len(t.refPoints) != len(t.robotPoints) {
		return fmt.Errorf("%w: number of reference correspondence points (%d) and number of robot correspondence points (%d) do not match",
			ErrInvalidDocument, len(t.refPoints), len(t.robotPoints))
	}

	if t.refMap.Size.X <= 0 || t.refMap.Size.Y <= 0 {
		return fmt.Errorf("%w: reference map size must be positive, got %gx%g",
			ErrInvalidDocument, t.refMap.Size.X, t.refMap.Size.Y)
	}
	if t.robotMap.Size.X <= 0 || t.robotMap.Size.Y <= 0 {
		return fmt.Errorf("%w: robot map size must be positive, got %gx%g",
			ErrInvalidDocument, t.robotMap.Size.X, t.robotMap.Size.Y)
	}

	// The translated robot map must at least touch the reference map.
	tr := t.mapTransform.Translation
	refBound := orb.Bound{
		Min: orb.Point{0, 0},
		Max: orb.Point{t.refMap.Size.X, t.refMap.Size.Y},
	}
	robotBound := orb.Bound{
		Min: orb.Point{tr.X, tr.Y},
		Max: orb.Point{tr.X + t.robotMap.Size.X, tr.Y + t.robotMap.Size.Y},
	}
	if !refBound.Intersects(robotBound) {
		return fmt.Errorf("%w: reference map and robot map do not overlap", ErrInvalidDocument)
	}

	switch {
	case t.mapTransform.Scale.X == 0 && t.mapTransform.Scale.Y == 0:
		return fmt.Errorf("%w: scale is zero in both x and y", ErrInvalidDocument)
	case t.mapTransform.Scale.X == 0:
		return fmt.Errorf("%w: scale is zero in x", ErrInvalidDocument)
	case t.mapTransform.Scale.Y == 0:
		return fmt.Errorf("%w: scale is zero in y", ErrInvalidDocument)
	}

	if err := checkMapImage("reference", t.refMap); err != nil {
		return err
	}
	return checkMapImage("robot", t.robotMap)
}

// checkMapImage verifies that a map's image file, if any, exists, is readable
// as an image, and matches the declared map size exactly. Only the image
// header is decoded.
func checkMapImage(which string, m MapInfo) error {
	if m.ImageFile == "" {
		return nil
	}

	f, err := os.Open(m.ImageFile)
	if err != nil {
		return fmt.Errorf("%w: %s map image file does not exist or is not accessible: %v",
			ErrInvalidDocument, which, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%w: decoding %s map image %s: %v",
			ErrInvalidDocument, which, m.ImageFile, err)
	}

	if float64(cfg.Width) != m.Size.X || float64(cfg.Height) != m.Size.Y {
		return fmt.Errorf("%w: %s map image dimensions %dx%d do not match declared map size %gx%g",
			ErrInvalidDocument, which, cfg.Width, cfg.Height, m.Size.X, m.Size.Y)
	}
	return nil
}
