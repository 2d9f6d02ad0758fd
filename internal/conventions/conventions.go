// Package conventions classifies conventional-commit messages into version
// bump severities. Parsing is a pure function over the message text; all
// patterns are compiled once at package init.
package conventions

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/papapumpkin/comet/internal/semver"
)

// ErrNotConventional indicates a commit message that fails the
// conventional-commits grammar when classification is mandatory.
var ErrNotConventional = errors.New("commit message does not follow the conventional commits format")

// Type is a conventional-commit change type. The vocabulary is closed;
// anything outside it fails linting.
type Type string

const (
	TypeCI       Type = "ci"
	TypeFeat     Type = "feat"
	TypeFix      Type = "fix"
	TypeDocs     Type = "docs"
	TypeRefactor Type = "refactor"
	TypePerf     Type = "perf"
	TypeTest     Type = "test"
	TypeBuild    Type = "build"
	TypeStyle    Type = "style"
	TypeChore    Type = "chore"
	TypeRevert   Type = "revert"
	TypeRelease  Type = "release"
	TypeMerge    Type = "merge"
)

// Types lists the closed change-type vocabulary.
var Types = []Type{
	TypeCI, TypeFeat, TypeFix, TypeDocs, TypeRefactor, TypePerf,
	TypeTest, TypeBuild, TypeStyle, TypeChore, TypeRevert, TypeRelease,
	TypeMerge,
}

// AutoBumpMessage is the commit message used for the tool's own version
// bump commits. It is also an ignore pattern, so bump commits are never
// reprocessed by a later flow.
const AutoBumpMessage = "chore: auto update comet config and project version files\n\n[skip ci]"

var (
	headerRe = func() *regexp.Regexp {
		names := make([]string, len(Types))
		for i, t := range Types {
			names[i] = string(t)
		}
		return regexp.MustCompile(
			`^(?P<type>` + strings.Join(names, "|") + `)` +
				`(?P<bang>!)?(?:\((?P<scope>[^()\r\n]*)\))?(?P<bangAfter>!)?: .+`)
	}()

	// A breaking-change footer is the BREAKING CHANGE token at the start of
	// a line following a blank line.
	breakingFooterRe = regexp.MustCompile(`\n[ \t]*\nBREAKING CHANGE`)

	ignoredRes = []*regexp.Regexp{
		regexp.MustCompile(`^Merge pull request `),
		regexp.MustCompile(`^Merge branch `),
		regexp.MustCompile(`^Merge in `),
		regexp.MustCompile(`^Merge .* into `),
		regexp.MustCompile(`^chore: auto update comet config and project version files`),
	}
)

// Classification is the result of parsing one commit message.
type Classification struct {
	Type     Type
	Scope    string
	Breaking bool
	Ignored  bool
}

// IsIgnored reports whether the message matches a merge-commit pattern or
// the tool's own auto-bump commit marker. Ignored commits are excluded
// before classification and must never be reprocessed.
func IsIgnored(message string) bool {
	for _, re := range ignoredRes {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// Lint reports whether the message matches the conventional-commits
// grammar: "type(scope)?!?: summary", optionally followed by a body and
// footers, with the type drawn from the closed vocabulary.
func Lint(message string) bool {
	return headerRe.MatchString(message)
}

// Classify parses the message into its change type, breaking flag, and
// ignore flag. It fails with ErrNotConventional when the message does not
// match the grammar.
func Classify(message string) (Classification, error) {
	if IsIgnored(message) {
		return Classification{Ignored: true}, nil
	}
	m := headerRe.FindStringSubmatch(message)
	if m == nil {
		return Classification{}, fmt.Errorf("%w: %q", ErrNotConventional, summaryOf(message))
	}
	c := Classification{}
	for i, name := range headerRe.SubexpNames() {
		switch name {
		case "type":
			c.Type = Type(m[i])
		case "scope":
			c.Scope = m[i]
		case "bang", "bangAfter":
			if m[i] != "" {
				c.Breaking = true
			}
		}
	}
	if breakingFooterRe.MatchString(message) {
		c.Breaking = true
	}
	return c, nil
}

// BumpSeverity maps the message to a version bump severity. A breaking
// marker or footer yields a major bump regardless of type; feat yields
// minor; fix, refactor, and perf yield patch; every other valid type is
// no change. Non-conventional messages fail with ErrNotConventional.
func BumpSeverity(message string) (semver.Severity, error) {
	c, err := Classify(message)
	if err != nil {
		return semver.NoChange, err
	}
	if c.Ignored {
		return semver.NoChange, nil
	}
	if c.Breaking {
		return semver.Major, nil
	}
	switch c.Type {
	case TypeFeat:
		return semver.Minor, nil
	case TypeFix, TypeRefactor, TypePerf:
		return semver.Patch, nil
	default:
		return semver.NoChange, nil
	}
}

func summaryOf(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
