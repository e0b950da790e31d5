package predict

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

// DefaultTargetSize is the edge length the pneumonia model was trained on.
const DefaultTargetSize = 150

var ErrPreprocess = errors.New("image preprocessing failed")

// Tensor is a single grayscale image laid out as (1, height, width, 1).
type Tensor struct {
	Shape []int64
	Data  []float32
}

func (t *Tensor) At(y, x int) float32 {
	return t.Data[y*int(t.Shape[2])+x]
}

// Preprocess turns the image at path into a normalized tensor: grayscale,
// resized to width x height, pixel values scaled to [0, 1].
func Preprocess(path string, width int, height int) (tensor *Tensor, err error) {
	log.Debug("[Preprocessing] Preprocessing image: ", path)

	defer func() {
		if r := recover(); r != nil {
			tensor = nil
			err = fmt.Errorf("%w: %v", ErrPreprocess, r)
		}
		if err != nil {
			log.Error("[Preprocessing] Error preprocessing image: ", err.Error())
		}
	}()

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid target size %dx%d", ErrPreprocess, width, height)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}
	log.Debug("[Preprocessing] Original image size: ", img.Bounds().Size(), ", format: ", format)

	gray := toGray(img)
	resized := imaging.Resize(gray, width, height, imaging.CatmullRom)

	sz := resized.Bounds().Size()
	if sz.X != width || sz.Y != height {
		return nil, fmt.Errorf("%w: resized image is %dx%d, expected %dx%d", ErrPreprocess, sz.X, sz.Y, width, height)
	}

	// imaging hands back NRGBA with R == G == B for a gray source
	data := make([]float32, width*height)
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < width; x++ {
			data[y*width+x] = float32(row[x*4]) / 255.0
		}
	}

	tensor = &Tensor{
		Shape: []int64{1, int64(height), int64(width), 1},
		Data:  data,
	}
	log.Debug("[Preprocessing] Final input shape: ", tensor.Shape)
	return tensor, nil
}

// toGray converts to 8-bit luma with ITU-R 601-2 weights in 16.16 fixed
// point, alpha ignored.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			l := (uint32(c.R)*19595 + uint32(c.G)*38470 + uint32(c.B)*7471 + 0x8000) >> 16
			dst.Pix[(y-b.Min.Y)*dst.Stride+(x-b.Min.X)] = uint8(l)
		}
	}
	return dst
}
