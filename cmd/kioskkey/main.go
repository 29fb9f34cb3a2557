// Command kioskkey provisions a gate kiosk: it generates a fresh API key and
// prints both the plaintext (configure it on the kiosk) and the bcrypt hash
// (append it to KIOSK_API_KEY_HASHES on the admission service). The plaintext
// is never stored anywhere else.
package main

import (
	"fmt"
	"os"

	"github.com/youssefloay/comebac-sub002/pkg/platform/secrets"
)

func main() {
	key, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate kiosk key: %v\n", err)
		os.Exit(1)
	}
	hash, err := secrets.Hash(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash kiosk key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("kiosk key:  %s\nkey hash:   %s\n", key, hash)
}
