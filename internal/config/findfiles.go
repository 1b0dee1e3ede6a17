package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var moduleExtensions = []string{".hcl", ".yaml", ".yml"}

func isModuleFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range moduleExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// findModules lists the entries of dir that can hold probe definitions:
// probe files and sub-directories, in lexical order.
func findModules(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not enumerate probe directory %s", dir)
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() || isModuleFile(e.Name()) {
			matches = append(matches, filepath.Join(dir, e.Name()))
		}
	}
	return matches, nil
}

// findInPath lists the probe files directly inside a directory module.
func findInPath(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, e := range entries {
		if !e.IsDir() && isModuleFile(e.Name()) {
			matches = append(matches, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(matches)
	return matches, nil
}
