package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"runtime"

	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/gruppe-adler/bomber/internal/grid"
)

// Sizes are the heights of the scaled preview images.
var Sizes = []uint{128, 256, 512, 1024}

// Render draws g as a grayscale image stretched between its smallest and
// largest valid value. No-data cells are transparent.
func Render(g grid.Grid) *image.NRGBA {
	cols, rows := g.Header.Dims()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))

	min, max, ok := g.Range()
	if !ok {
		return img
	}
	span := max - min

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !g.Valid(c, r) {
				continue
			}

			v := uint8(255)
			if span > 0 {
				v = uint8((g.Z(c, r) - min) / span * 255)
			}
			img.SetNRGBA(c, r, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	return img
}

// WriteAll writes preview.png in original size plus one preview_<size>.png
// per entry of Sizes into outputDirectory.
func WriteAll(img image.Image, outputDirectory string) ([]string, error) {
	paths := make([]string, len(Sizes)+1)
	paths[0] = path.Join(outputDirectory, "preview.png")
	if err := saveImage(paths[0], img); err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	group, ctx := errgroup.WithContext(context.Background())

	for i, size := range Sizes {
		i, size := i, size
		paths[i+1] = path.Join(outputDirectory, fmt.Sprintf("preview_%d.png", size))

		group.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			// width 0 keeps the aspect ratio
			scaled := resize.Resize(0, size, img, resize.MitchellNetravali)
			return saveImage(paths[i+1], scaled)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func saveImage(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
