package validate

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ormasoftchile/mcpstd/pkg/result"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// DirectoryValidator checks the required layout and file naming.
type DirectoryValidator struct {
	base
}

// NewDirectoryValidator returns a validator for root. A nil std uses the
// default standard.
func NewDirectoryValidator(root string, std *standard.Standard) *DirectoryValidator {
	return &DirectoryValidator{base: newBase("directory", root, std, nil)}
}

// ValidateDirectoryStructure checks that root exists and that every required
// directory and file is present. Only a missing root stops the check early.
func (v *DirectoryValidator) ValidateDirectoryStructure() bool {
	info, err := os.Stat(v.root)
	if err != nil || !info.IsDir() {
		v.col.AddCritical(filepath.ToSlash(v.root), "root directory not found: %s", v.root)
		return false
	}

	valid := true
	for _, dir := range v.std.Layout {
		dirPath := filepath.Join(v.root, dir.Name)
		info, err := os.Stat(dirPath)
		if err != nil {
			v.col.AddCritical(dir.Name, "required directory not found: %s (%s)", dir.Name, dir.Description)
			valid = false
			continue
		}
		if !info.IsDir() {
			v.col.AddCritical(dir.Name, "required path is not a directory: %s", dir.Name)
			valid = false
			continue
		}
		for _, name := range dir.Files {
			rel := path.Join(dir.Name, name)
			info, err := os.Stat(filepath.Join(dirPath, name))
			if err != nil {
				v.col.AddCritical(rel, "required file not found: %s", rel)
				valid = false
				continue
			}
			if !info.Mode().IsRegular() {
				v.col.AddCritical(rel, "required path is not a regular file: %s", rel)
				valid = false
			}
		}
	}
	return valid
}

// ValidateAllFiles checks the name of every top-level regular file in each
// required directory that exists. Files matching an ignore glob are skipped.
func (v *DirectoryValidator) ValidateAllFiles() bool {
	valid := true
	for _, dir := range v.std.Layout {
		entries, err := os.ReadDir(filepath.Join(v.root, dir.Name))
		if err != nil {
			continue // reported by ValidateDirectoryStructure
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			rel := path.Join(dir.Name, name)
			if v.std.Ignored(rel) {
				continue
			}
			if !v.ValidateFileNaming(rel) {
				valid = false
			}
		}
	}
	return valid
}

// ValidateFileNaming checks the base name of rel against the accepted
// patterns and records one error listing them all on mismatch.
func (v *DirectoryValidator) ValidateFileNaming(rel string) bool {
	name := path.Base(filepath.ToSlash(rel))
	for _, rule := range v.std.NamingRules {
		if rule.Pattern.MatchString(name) {
			return true
		}
	}
	accepted := make([]string, 0, len(v.std.NamingRules))
	for _, rule := range v.std.NamingRules {
		accepted = append(accepted, rule.Pattern.String()+" ("+rule.Description+")")
	}
	v.col.AddError(rel, "invalid file name: "+rel+"; accepted patterns: "+strings.Join(accepted, ", "), result.Critical)
	return false
}
