// Package placeholder rewrites the run-specific markers left in generated
// files.
//
// A marker is only replaced when it sits inside a quoted string literal
// ("...", '...' or `...`). Only the marker itself changes: the quotes and any
// text around the marker inside the same literal are kept, so
// "#databaseDir/schema.ts" becomes "./lib/db/schema.ts". Each marker is
// replaced once per file; templates carry every marker at most once.
package placeholder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/fsutil"
	"github.com/johndauphine/drizzle-project/internal/logging"
)

const (
	DatabaseDirToken    = "#databaseDir"
	OutDirToken         = "#outDir"
	MigrateCommandToken = dbconfig.MigrateCommandToken
)

// Pair is one marker and its replacement.
type Pair struct {
	Token string
	Value string
}

// Map is the ordered set of replacements for one run.
type Map []Pair

// NewMap builds the replacements for a run.
func NewMap(databaseDir, outDir, migrateCommand string) Map {
	return Map{
		{Token: DatabaseDirToken, Value: databaseDir},
		{Token: OutDirToken, Value: outDir},
		{Token: MigrateCommandToken, Value: migrateCommand},
	}
}

// Lookup returns the replacement for token.
func (m Map) Lookup(token string) (string, bool) {
	for _, p := range m {
		if p.Token == token {
			return p.Value, true
		}
	}
	return "", false
}

// Resolve replaces every marker in a plain value such as a script command.
// No quoting rules apply here.
func (m Map) Resolve(s string) string {
	for _, p := range m {
		s = strings.ReplaceAll(s, p.Token, p.Value)
	}
	return s
}

// ReplaceFirst replaces token inside the first quoted literal that contains
// it. It reports whether a replacement happened.
func ReplaceFirst(text, token, value string) (string, bool) {
	if token == "" || !strings.Contains(text, token) {
		return text, false
	}
	for _, span := range literals(text) {
		if k := strings.Index(text[span[0]:span[1]], token); k >= 0 {
			at := span[0] + k
			return text[:at] + value + text[at+len(token):], true
		}
	}
	return text, false
}

// literals returns the [start, end) offsets of every quoted literal body in
// text, in order. Quotes are paired left to right, backslash escapes are
// honored, and // and /* */ comments outside literals are skipped. A "..."
// or '...' literal must close on its own line; an unclosed quote is treated
// as plain text.
func literals(text string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case strings.HasPrefix(text[i:], "//"):
			nl := strings.IndexByte(text[i:], '\n')
			if nl < 0 {
				return spans
			}
			i += nl
		case strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return spans
			}
			i += 2 + end + 1
		case c == '"' || c == '\'' || c == '`':
			end := closingQuote(text, i+1, c)
			if end < 0 {
				continue
			}
			spans = append(spans, [2]int{i + 1, end})
			i = end
		}
	}
	return spans
}

func closingQuote(text string, from int, quote byte) int {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j
		case '\n':
			// template literals may span lines
			if quote != '`' {
				return -1
			}
		}
	}
	return -1
}

// ApplyText runs every replacement in m over text.
func ApplyText(text string, m Map) string {
	for _, p := range m {
		text, _ = ReplaceFirst(text, p.Token, p.Value)
	}
	return text
}

// Apply rewrites the markers in every file. Files are processed
// concurrently and a failure in one file does not stop the others; all
// failures are returned together, deduplicated, once every file is done.
func Apply(ctx context.Context, m Map, paths []string) error {
	var g multierror.Group
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("substituting %s: %w", path, err)
			}
			return applyFile(path, m)
		})
	}
	return dedupe(g.Wait())
}

func applyFile(path string, m Map) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("substituting %s: %w", path, err)
	}

	original := string(data)
	updated := ApplyText(original, m)
	if updated == original {
		logging.Debug("No placeholders in %s", path)
		return nil
	}

	if err := fsutil.Rewrite(path, []byte(updated)); err != nil {
		return fmt.Errorf("substituting %s: %w", path, err)
	}
	logging.Debug("Substituted placeholders in %s", path)
	return nil
}

func dedupe(merr *multierror.Error) error {
	if merr == nil || len(merr.Errors) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(merr.Errors))
	var result *multierror.Error
	for _, err := range merr.Errors {
		msg := err.Error()
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
