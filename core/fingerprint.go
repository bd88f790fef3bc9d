package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint identifies one version of a source document.
// Identical fingerprints are assumed to mean identical content.
type Fingerprint string

// FingerprintMode selects how a document version is identified.
type FingerprintMode int

const (
	// ModeContent hashes the file bytes. Edits that keep size and mtime still change it.
	ModeContent FingerprintMode = iota
	// ModeStat hashes size and whole-second modification time without reading the file.
	// Distinct files with equal size and mtime collide.
	ModeStat
)

// ParseFingerprintMode parses "content" or "stat".
func ParseFingerprintMode(s string) (FingerprintMode, error) {
	switch s {
	case "", "content":
		return ModeContent, nil
	case "stat":
		return ModeStat, nil
	}
	return ModeContent, fmt.Errorf("unknown fingerprint mode %q", s)
}

func (m FingerprintMode) String() string {
	if m == ModeStat {
		return "stat"
	}
	return "content"
}

const fingerprintSize = 16

// FingerprintFile computes the fingerprint of the file at path.
func FingerprintFile(path string, mode FingerprintMode) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	h, _ := blake2b.New(fingerprintSize, nil)
	if mode == ModeStat {
		h.Write([]byte(strconv.FormatInt(info.Size(), 10) + "_" + strconv.FormatInt(info.ModTime().Unix(), 10)))
		return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h.Write([]byte(strconv.FormatInt(info.Size(), 10) + ":"))
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// HashString returns a short hex BLAKE2b digest of s.
// Used for dedup keys and scope names.
func HashString(s string) string {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}
