package render

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CachePath returns where a rendered document is cached:
// dir/kind/<hash>ext. The hash covers kind and every part, each length
// prefixed, so different inputs never share a path.
func CachePath(dir, kind, ext string, parts ...string) string {
	h := sha256.New()
	writePart(h, "murder/render/v1")
	writePart(h, kind)
	for _, p := range parts {
		writePart(h, p)
	}
	return filepath.Join(dir, kind, hex.EncodeToString(h.Sum(nil))+ext)
}

func writePart(w io.Writer, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	w.Write(n[:])
	io.WriteString(w, s)
}

// WriteCached renders into path unless it already exists. It reports
// whether build ran. A failed build leaves no file behind.
func WriteCached(path string, build func(io.Writer) error) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := build(tmp); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("move %s into cache: %w", path, err)
	}
	return true, nil
}
