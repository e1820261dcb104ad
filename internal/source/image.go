package source

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/rfsurface/internal/grid"
)

// Rec. 709 luma weights applied to 8-bit channels.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// File is a user-supplied input held in memory.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// NewFile wraps data, sniffing the media type when declared is empty.
func NewFile(name, declared string, data []byte) File {
	mt := declared
	if mt == "" || mt == "application/octet-stream" {
		mt = detectMediaType(name, data)
	}
	return File{Name: name, MediaType: mt, Data: data}
}

// ReadFile loads a file from disk.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, inputErr("read "+filepath.Base(path), err)
	}
	return NewFile(filepath.Base(path), "", data), nil
}

func detectMediaType(name string, data []byte) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); mt != "" {
		return mt
	}
	return http.DetectContentType(data)
}

// IsImage reports whether the media type begins with "image/".
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MediaType, "image/")
}

// FilterImages returns the files whose media type is an image, in input order.
func FilterImages(files []File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if f.IsImage() {
			out = append(out, f)
		}
	}
	return out
}

// DecodeImage decodes f. Non-image media types are input errors.
func DecodeImage(f File) (image.Image, error) {
	op := "decode " + f.Name
	if !f.IsImage() {
		return nil, inputErr(op, fmt.Errorf("%w: %s", ErrNotImage, f.MediaType))
	}
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, decodeErr(op, err)
	}
	if img.Bounds().Empty() {
		return nil, decodeErr(op, ErrEmptyImage)
	}
	return img, nil
}

// toNRGBA returns img as non-premultiplied 8-bit RGBA anchored at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Resize scales img to w x h with bilinear filtering.
func Resize(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return toNRGBA(img)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ResizeGray converts img to 8-bit gray and scales it to w x h with bilinear filtering.
func ResizeGray(img image.Image, w, h int) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	if b.Dx() == w && b.Dy() == h {
		return gray
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return dst
}

func luma(c color.NRGBA) float32 {
	return float32((lumaR*float64(c.R) + lumaG*float64(c.G) + lumaB*float64(c.B)) / 255)
}

// FromImage returns a grid at the image's intrinsic size holding per-pixel luma.
func FromImage(img image.Image) (grid.Grid, error) {
	b := img.Bounds()
	if b.Empty() {
		return grid.Grid{}, decodeErr("luma", ErrEmptyImage)
	}
	src := toNRGBA(img)
	w, h := b.Dx(), b.Dy()
	values := make([]float32, w*h)
	for y := range h {
		for x := range w {
			values[y*w+x] = luma(src.NRGBAAt(x, y))
		}
	}
	return grid.New(grid.Dimensions{Width: w, Height: h}, values)
}

// RowFromImage extracts row y of img as luma values.
func RowFromImage(img image.Image, y int) ([]float32, error) {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if y < 0 || y >= h {
		return nil, inputErr("row", fmt.Errorf("%w: %d not in [0,%d)", ErrRowRange, y, h))
	}
	row := make([]float32, w)
	for x := range w {
		row[x] = grid.Clamp01(luma(src.NRGBAAt(x, y)))
	}
	return row, nil
}
