// Package ticket renders an accepted registration's QR payload for the
// confirmation screen and printed badges.
package ticket

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"symposium/internal/model"
)

// PNGSize is the rendered edge length in pixels.
const PNGSize = 256

// PNG encodes the registration's QR payload as a PNG image.
func PNG(reg model.Registration) ([]byte, error) {
	if reg.QRCode == "" {
		return nil, errors.New("registration has no QR payload")
	}
	return qrcode.Encode(reg.QRCode, qrcode.Medium, PNGSize)
}

// WriteFile renders the ticket into dir and returns the file path.
func WriteFile(dir string, reg model.Registration) (string, error) {
	buf, err := PNG(reg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create ticket dir: %w", err)
	}
	name := reg.ID
	if name == "" {
		name = uuid.NewString()
	}
	path := filepath.Join(dir, "ticket-"+name+".png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write ticket: %w", err)
	}
	return path, nil
}
