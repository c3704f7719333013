package document

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPreviewLimit is how many characters of a letter a free user sees.
const DefaultPreviewLimit = 500

// Preview truncates text to limit runes and appends the upgrade notice. It reports
// whether anything was cut.
func Preview(text string, limit int) (string, bool) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	rest := len(runes) - limit
	return string(runes[:limit]) +
		fmt.Sprintf("\n\n[... %d caracteres restantes - Assine para ver o conteúdo completo ...]", rest), true
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename builds the download name recurso-<name>.<ext>.
func Filename(name, ext string) string {
	name = strings.Trim(unsafeFilename.ReplaceAllString(name, "-"), "-")
	if name == "" {
		name = "documento"
	}
	return fmt.Sprintf("recurso-%s.%s", name, ext)
}
