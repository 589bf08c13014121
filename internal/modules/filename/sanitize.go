// Package filename turns free-text song requests into names that are safe to
// use on common filesystems.
package filename

import "strings"

// MaxLength is the longest name Sanitize returns, in runes.
const MaxLength = 100

const trimSet = ". "

var unsafeReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Sanitize replaces characters that are reserved on Windows or POSIX
// filesystems with underscores, trims leading and trailing dots and spaces
// and caps the result at MaxLength runes. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	name := unsafeReplacer.Replace(s)
	name = strings.Trim(name, trimSet)

	runes := []rune(name)
	if len(runes) > MaxLength {
		// cutting may expose a trailing dot or space
		name = strings.TrimRight(string(runes[:MaxLength]), trimSet)
	}
	return name
}
