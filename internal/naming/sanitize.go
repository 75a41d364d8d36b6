package naming

import "strings"

const maxNameLength = 240

var nameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
	"\x00", "",
)

// SanitizeName makes a rendered name safe to use as a single path
// component on common filesystems.
func SanitizeName(name string) string {
	cleaned := nameReplacer.Replace(name)
	cleaned = strings.TrimSpace(collapseSpaces(cleaned))
	cleaned = strings.Trim(cleaned, ". ")
	if len(cleaned) > maxNameLength {
		cleaned = strings.TrimSpace(cleaned[:maxNameLength])
	}
	if cleaned == "" {
		return "_"
	}
	return cleaned
}
