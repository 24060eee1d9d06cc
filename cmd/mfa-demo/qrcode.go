package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// renderQRCode encodes text as a QR code and writes it to outPath as a
// PNG, scaled to size x size pixels. Stands in for the "scan this to
// register" step a real device app would show on a paired screen.
func renderQRCode(text, outPath string, size int) error {
	code, err := qr.Encode(text, qr.M, qr.Auto)
	if err != nil {
		return fmt.Errorf("mfa-demo: failed to encode QR code: %w", err)
	}

	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return fmt.Errorf("mfa-demo: failed to scale QR code: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("mfa-demo: failed to create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := png.Encode(f, scaled); err != nil {
		return fmt.Errorf("mfa-demo: failed to write PNG: %w", err)
	}
	return nil
}
