package dataset

import "fmt"

// DigitBox is the side of the square MNIST digits are fitted into.
const DigitBox = 20

// CenterDigit prepares a hand-drawn image for a network trained on MNIST.
// It crops pixels (row-major, width x height, values in [0, 1]) to the
// bounding box of the non-zero pixels, shrinks the crop by area averaging
// when it is larger than box, and returns it centered on a blank image of
// the same size. A blank input yields a blank output.
func CenterDigit(pixels []float64, width, height, box int) ([]float64, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrFormat, len(pixels), width, height)
	}
	out := make([]float64, len(pixels))

	minX, minY, maxX, maxY := width, height, -1, -1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pixels[y*width+x] != 0 {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	if maxX < 0 {
		return out, nil
	}

	cropW, cropH := maxX-minX+1, maxY-minY+1
	factor := 1.0
	dstW, dstH := cropW, cropH
	if box > 0 && (cropW > box || cropH > box) {
		if cropW > cropH {
			factor = float64(cropW) / float64(box)
			dstW, dstH = box, int(float64(cropH)/factor)
		} else {
			factor = float64(cropH) / float64(box)
			dstW, dstH = int(float64(cropW)/factor), box
		}
	}
	offX, offY := width/2-dstW/2, height/2-dstH/2

	for dy := 0; dy < dstH; dy++ {
		for dx := 0; dx < dstW; dx++ {
			x0 := minX + int(float64(dx)*factor)
			y0 := minY + int(float64(dy)*factor)
			x1 := minX + int(float64(dx+1)*factor)
			y1 := minY + int(float64(dy+1)*factor)

			var sum float64
			count := 0
			for sy := y0; sy < max(y1, y0+1) && sy <= maxY; sy++ {
				for sx := x0; sx < max(x1, x0+1) && sx <= maxX; sx++ {
					sum += pixels[sy*width+sx]
					count++
				}
			}
			if count > 0 {
				out[(offY+dy)*width+offX+dx] = sum / float64(count)
			}
		}
	}
	return out, nil
}
