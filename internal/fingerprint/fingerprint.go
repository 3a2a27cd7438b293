// Package fingerprint derives the content digests recall uses to tell
// clipboard entries apart. Digests identify content; they are not a
// security boundary.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Size is the length of a fingerprint in hex characters.
const Size = md5.Size * 2

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeText converts CRLF and bare CR line endings to LF.
func NormalizeText(s string) string {
	return lineEndings.Replace(s)
}

// Text returns the fingerprint of s after line-ending normalization.
func Text(s string) string {
	return Bytes([]byte(NormalizeText(s)))
}

// Bytes returns the fingerprint of raw payload bytes, such as an encoded image.
func Bytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// Short returns the first eight characters of fp for log output.
func Short(fp string) string {
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}
