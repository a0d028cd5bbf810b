package ticket

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"symposium/internal/model"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestPNGEncodesPayload(t *testing.T) {
	buf, err := PNG(model.Registration{ID: "r1", QRCode: "REG:r1"})
	if err != nil {
		t.Fatalf("PNG() failed: %v", err)
	}
	if !bytes.HasPrefix(buf, pngMagic) {
		t.Fatalf("output is not a PNG (first bytes %x)", buf[:8])
	}
}

func TestPNGRequiresPayload(t *testing.T) {
	if _, err := PNG(model.Registration{ID: "r1"}); err == nil {
		t.Fatalf("empty QR payload accepted")
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tickets")

	path, err := WriteFile(dir, model.Registration{ID: "r1", QRCode: "REG:r1"})
	if err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if filepath.Base(path) != "ticket-r1.png" {
		t.Fatalf("path = %q", path)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ticket: %v", err)
	}
	if !bytes.HasPrefix(buf, pngMagic) {
		t.Fatalf("ticket file is not a PNG")
	}
}

func TestWriteFileNamesAnonymousRegistrations(t *testing.T) {
	path, err := WriteFile(t.TempDir(), model.Registration{QRCode: "REG:pending"})
	if err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "ticket-") || !strings.HasSuffix(name, ".png") || name == "ticket-.png" {
		t.Fatalf("name = %q", name)
	}
}
