package format

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxDisplayStem is the number of characters of the source name kept in an
// output display name.
const MaxDisplayStem = 30

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename returns an ASCII-only version of name that is safe to use
// as a single path component. Path separators become spaces, whitespace
// runs become underscores and anything outside [A-Za-z0-9_.-] is dropped,
// as are leading and trailing dots and underscores. The result may be
// empty.
func SecureFilename(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	s := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// Allowed reports whether filename has a .pdf extension.
func Allowed(filename string) bool {
	i := strings.LastIndex(filename, ".")
	return i >= 0 && strings.EqualFold(filename[i+1:], "pdf")
}

// Stem returns filename without its final extension.
func Stem(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}

// DisplayName derives the output name for a source file: the stem cut to
// MaxDisplayStem characters followed by the output format's extension.
func DisplayName(filename string, out Format) string {
	stem := []rune(Stem(filename))
	if len(stem) > MaxDisplayStem {
		stem = stem[:MaxDisplayStem]
	}
	return string(stem) + out.Extension()
}

// JobFilename prefixes a display name with its job ID.
func JobFilename(jobID, display string) string {
	return jobID + "_" + display
}

// StripJobPrefix removes everything up to and including the first
// underscore. Names without an underscore are returned unchanged.
func StripJobPrefix(filename string) string {
	if _, rest, ok := strings.Cut(filename, "_"); ok && rest != "" {
		return rest
	}
	return filename
}
