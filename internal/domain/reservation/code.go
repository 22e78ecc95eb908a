package reservation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	codePrefix       = "CC"
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffixLength = 4
	codeTimeDigits   = 100000000 // last 8 digits of unix-ms
)

// GenerateConfirmationCode produces a human-shareable code: a fixed prefix,
// the last 8 digits of the current unix-ms clock, and a 4-character random
// suffix. Not globally unique by construction; callers that care check for
// duplicates among existing reservations.
func GenerateConfirmationCode(now time.Time) string {
	timestamp := now.UnixMilli() % codeTimeDigits

	suffix := make([]byte, codeSuffixLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable noise; degrade to clock bits
			suffix[i] = codeAlphabet[int(now.UnixNano()>>uint(i*6))%len(codeAlphabet)]
			continue
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}

	return fmt.Sprintf("%s%08d%s", codePrefix, timestamp, suffix)
}
