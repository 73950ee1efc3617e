package memo

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes keep content and error digests disjoint.
// Version suffix enables future algorithm migration.
const (
	DomainContent = "folio/content/v1"
	DomainError   = "folio/error/v1"
)

// Fingerprint is a 128-bit digest of a load result.
// It is used for change detection only and is not a security boundary.
type Fingerprint [16]byte

// Of fingerprints the result of a load: the bytes on success, or the error
// message on failure. A stable error therefore has a stable fingerprint.
func Of(data []byte, err error) Fingerprint {
	h := sha256.New()
	if err != nil {
		h.Write([]byte(DomainError))
		h.Write([]byte{0x00})
		h.Write([]byte(err.Error()))
	} else {
		h.Write([]byte(DomainContent))
		h.Write([]byte{0x00})
		h.Write(data)
	}

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// String returns the lowercase hex encoding.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether f is the zero value (never produced by Of).
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}
