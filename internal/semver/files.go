package semver

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// FileEdit names one file carrying a version string, with an optional
// capture regex controlling how the version is located inside it.
type FileEdit struct {
	Path  string
	Regex string
}

// CompileEdit validates the edit's regex. A regex with more than one
// capture group is rejected; replacement with multiple groups would be
// ambiguous.
func CompileEdit(edit FileEdit) (*regexp.Regexp, error) {
	if edit.Regex == "" {
		return nil, nil
	}
	re, err := regexp.Compile(edit.Regex)
	if err != nil {
		return nil, fmt.Errorf("version file %s: %w", edit.Path, err)
	}
	if re.NumSubexp() > 1 {
		return nil, fmt.Errorf("version file %s: %w", edit.Path, ErrVersionFileRegex)
	}
	return re, nil
}

// UpdateVersionFiles rewrites each file in place, substituting old with the
// new version. Without a regex the old version string is replaced
// literally wherever it occurs. A zero-group regex replaces its whole
// match with the new version. A one-group regex replaces only the text
// after the group's match, preserving the captured literal prefix (for
// example a "Version: " label). All non-matched content is preserved.
func UpdateVersionFiles(edits []FileEdit, from, to Version) error {
	oldStr, newStr := from.String(), to.String()
	for _, edit := range edits {
		re, err := CompileEdit(edit)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(edit.Path)
		if err != nil {
			return fmt.Errorf("reading version file: %w", err)
		}
		info, err := os.Stat(edit.Path)
		if err != nil {
			return fmt.Errorf("reading version file: %w", err)
		}

		content := string(data)
		switch {
		case re == nil:
			content = strings.ReplaceAll(content, oldStr, newStr)
		case re.NumSubexp() == 0:
			content = re.ReplaceAllLiteralString(content, newStr)
		default:
			content = re.ReplaceAllStringFunc(content, func(m string) string {
				sub := re.FindStringSubmatch(m)
				return sub[1] + newStr
			})
		}

		if err := os.WriteFile(edit.Path, []byte(content), info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing version file: %w", err)
		}
	}
	return nil
}
