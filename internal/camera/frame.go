package camera

import (
	"image"

	"golang.org/x/image/draw"
)

// ToRGB converts a decoded frame (typically YCbCr from the MJPEG stream) into
// packed 8-bit RGB(A) with origin at (0,0), the layout the face models read.
func ToRGB(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// PackRGB strips the alpha channel, returning w*h*3 bytes in R,G,B order.
func PackRGB(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for x := 0; x < w*4; x += 4 {
			out = append(out, row[x], row[x+1], row[x+2])
		}
	}
	return out
}
