package common

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

var (
	filenameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	keyAlphabet        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CleanFilename strips everything outside [a-zA-Z0-9_.-] from a filename,
// converting spaces to underscores first so word boundaries survive.
func CleanFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	return filenameDisallowed.ReplaceAllString(name, "")
}

// RandomFileKey returns a random alphanumeric key of 8 to 12 characters,
// used to prefix stored filenames so identical uploads never collide.
func RandomFileKey() string {
	n := 8 + rand.IntN(5)
	b := make([]byte, n)
	for i := range b {
		b[i] = keyAlphabet[rand.IntN(len(keyAlphabet))]
	}
	return string(b)
}

// PublicFileName joins a random key and cleaned filename into the public
// form {key}*{clean}. The "*" cannot appear in a cleaned name, which makes
// the split unambiguous.
func PublicFileName(key, clean string) string {
	return key + "*" + clean
}

// StoredFileName joins a random key and cleaned filename into the on-disk
// form {key}_{clean}.
func StoredFileName(key, clean string) string {
	return key + "_" + clean
}

// SplitPublicFileName splits a public name {key}*{clean} back into its
// parts. The second return is false when the separator is missing.
func SplitPublicFileName(name string) (key, clean string, ok bool) {
	key, clean, ok = strings.Cut(name, "*")
	if !ok || key == "" {
		return "", "", false
	}
	return key, clean, true
}

// SanitizeTopicName lowercases a topic name and reduces it to
// [a-z0-9_] for use in directory and collection names.
func SanitizeTopicName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
