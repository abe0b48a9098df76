package criteria

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint derives the stable cache key for a Normalized value. Fields are
// serialized in fixed lexicographic key order and digested with SHA-256, so
// equal Normalized values always share a fingerprint and any field difference
// produces a different one. This is the load-bearing contract of the cache:
// raw inputs that are equivalent after normalization must collide here.
func Fingerprint(n Normalized) string {
	var b strings.Builder
	b.WriteString("excludeMarried=")
	b.WriteString(strconv.FormatBool(n.ExcludeMarried))
	b.WriteString("|excludeObese=")
	b.WriteString(strconv.FormatBool(n.ExcludeObese))
	b.WriteString("|maxAge=")
	b.WriteString(strconv.Itoa(n.MaxAge))
	b.WriteString("|minAge=")
	b.WriteString(strconv.Itoa(n.MinAge))
	b.WriteString("|minHeight=")
	b.WriteString(FormatHeight(n.MinHeightCm))
	b.WriteString("|minIncome=")
	b.WriteString(strconv.Itoa(n.MinIncome))
	b.WriteString("|race=")
	b.WriteString(strconv.Itoa(int(n.Race)))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
