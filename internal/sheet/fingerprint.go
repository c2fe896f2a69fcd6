package sheet

import (
	"fmt"
	"os"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a short content hash of the artifact at path, used to
// correlate artifacts across stage invocations in logs and reports.
func Fingerprint(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", xxh3.Hash(b)), nil
}
