package indexer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/photo-search/internal/photo"
)

const (
	// SampleSize is how many leading bytes of an object feed its fingerprint.
	// Photos sharing their first SampleSize bytes collide and are treated as
	// the same photo.
	SampleSize = 1024

	// FingerprintLength is the number of hex characters kept from the digest.
	FingerprintLength = 12

	// DocumentPrefix starts every photo document id.
	DocumentPrefix = "photo_"
)

// Identity is the fingerprint a photo is indexed under.
type Identity struct {
	Fingerprint string
	// Fallback is set when the object could not be read and the fingerprint
	// was derived from the key. Duplicate detection does not work for it.
	Fallback bool
	Err      error
}

// DocumentID is the index key for the identity.
func (id Identity) DocumentID() string {
	return DocumentID(id.Fingerprint)
}

// DocumentID prefixes a fingerprint into an index key.
func DocumentID(fingerprint string) string {
	return DocumentPrefix + fingerprint
}

// FingerprintReader hashes at most SampleSize bytes read from r.
func FingerprintReader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, io.LimitReader(r, SampleSize)); err != nil {
		return "", fmt.Errorf("failed to read sample: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil))[:FingerprintLength], nil
}

// FingerprintBytes hashes the first SampleSize bytes of b.
func FingerprintBytes(b []byte) string {
	if len(b) > SampleSize {
		b = b[:SampleSize]
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

var keyReplacer = strings.NewReplacer("/", "_", ".", "_")

// KeyFingerprint is the fallback identity for an object that could not be read.
func KeyFingerprint(key string) string {
	return keyReplacer.Replace(key)
}

// Fingerprinter derives identities from the leading bytes of an object.
type Fingerprinter struct {
	logger *slog.Logger
}

// NewFingerprinter creates a Fingerprinter.
func NewFingerprinter(logger *slog.Logger) *Fingerprinter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fingerprinter{logger: logger}
}

// Identify fingerprints the first SampleSize bytes of header, which was read
// from the start of the object at loc. If the read failed (readErr is set)
// the identity falls back to KeyFingerprint so the upload is still indexed.
func (f *Fingerprinter) Identify(loc photo.Locator, header []byte, readErr error) Identity {
	if readErr != nil {
		f.logger.Warn("fingerprint_fallback",
			slog.String("bucket", loc.Bucket),
			slog.String("key", loc.Key),
			slog.String("error", readErr.Error()))
		return Identity{
			Fingerprint: KeyFingerprint(loc.Key),
			Fallback:    true,
			Err:         readErr,
		}
	}
	return Identity{Fingerprint: FingerprintBytes(header)}
}
