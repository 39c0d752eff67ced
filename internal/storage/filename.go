package storage

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

	reservedDeviceNames = map[string]bool{
		"CON": true, "PRN": true, "AUX": true, "NUL": true,
		"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
		"COM6": true, "COM7": true, "COM8": true, "COM9": true,
		"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
		"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
	}
)

// SanitizeFilename turns an untrusted client filename into a single safe
// path component. The result only contains ASCII letters, digits, '_', '.'
// and '-', never starts or ends with '.' or '_', and may be empty.
//
//	"../../etc/passwd"      -> "etc_passwd"
//	"My cool photo.JPG"     -> "My_cool_photo.JPG"
//	"café.png"              -> "cafe.png"
func SanitizeFilename(name string) string {
	// Decompose so accented letters keep their ASCII base.
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name != "" && reservedDeviceNames[strings.ToUpper(strings.SplitN(name, ".", 2)[0])] {
		name = "_" + name
	}

	return name
}

// MaxExtensionLength bounds the extension kept on a generated name,
// including the leading dot.
const MaxExtensionLength = 16

// SafeExtension returns the extension of the sanitized form of name,
// including the leading dot, or "" if there is none or it is longer than
// MaxExtensionLength.
func SafeExtension(name string) string {
	ext := filepath.Ext(SanitizeFilename(name))
	if len(ext) > MaxExtensionLength {
		return ""
	}
	return ext
}
