package match

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/discussions-migrator/internal/models"
)

// markerFormat is how a fingerprint is embedded in a discussion body. It is
// the marker giscus searches for in strict mode.
const markerFormat = "<!-- sha1: %s -->"

// Slug returns the path of a canonical URL without its leading separator
func Slug(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", models.NewDataError(models.ErrCodeInvalidURL, "", "cannot parse %q: %v", rawURL, err)
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}

// Fingerprint is the lowercase hex SHA-1 of the URL's slug. It depends on
// nothing but the URL, so it is stable across runs and machines.
func Fingerprint(rawURL string) (string, error) {
	slug, err := Slug(rawURL)
	if err != nil {
		return "", err
	}
	return HashSlug(slug), nil
}

// HashSlug hashes an already extracted slug
func HashSlug(slug string) string {
	sum := sha1.Sum([]byte(slug))
	return hex.EncodeToString(sum[:])
}

// Marker returns the text embedded in a discussion body for fingerprint
func Marker(fingerprint string) string {
	return fmt.Sprintf(markerFormat, fingerprint)
}
