package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// OutroCard renders a frame-sized attribution card: a QR code linking to
// the source article, centered on a transparent canvas. Appended as the
// final layer when the qr_outro option is on.
func OutroCard(url string, frameW, frameH int) ([]byte, error) {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("build qr code: %w", err)
	}

	side := frameH / 2
	if side < 64 {
		side = 64
	}
	qrImg := qr.Image(side)

	dst := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	origin := image.Pt((frameW-side)/2, (frameH-side)/2)
	draw.Draw(dst, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}, qrImg, qrImg.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode outro card: %w", err)
	}
	return buf.Bytes(), nil
}
