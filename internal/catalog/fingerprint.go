package catalog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable BLAKE2b-256 digest of the institutions, in
// the order given. It changes whenever any institution or course changes.
func Fingerprint(insts []Institution) (string, error) {
	data, err := json.Marshal(insts)
	if err != nil {
		return "", fmt.Errorf("encoding catalog: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
