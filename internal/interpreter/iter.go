package interpreter

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var posixNamePattern = regexp.MustCompile(`^(python|pypy)(\d(\.\d{1,2})?)?$`)
var windowsNamePattern = regexp.MustCompile(`^(python|pypy)(w)?\.exe$`)

// CandidatesFromSearchPath walks each directory in a PATH-like list and
// yields candidate executable paths. Duplicate canonical paths are not
// collapsed here; callers that need a deduplicated set should resolve
// symlinks and dedupe themselves.
func CandidatesFromSearchPath(searchPath []string) []string {
	var candidates []string
	for _, dir := range searchPath {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !isCandidateName(name) {
				continue
			}
			path := filepath.Join(dir, name)
			if !isEligible(path) {
				continue
			}
			candidates = append(candidates, path)
		}
	}
	return candidates
}

func isCandidateName(name string) bool {
	if runtime.GOOS == "windows" {
		return windowsNamePattern.MatchString(strings.ToLower(name))
	}
	if strings.HasSuffix(name, "-config") || strings.HasSuffix(name, ".py") {
		return false
	}
	return posixNamePattern.MatchString(name)
}

// isEligible rejects non-executable files and shell-wrapper scripts
// (files whose first two bytes are "#!") on POSIX; everything that exists
// is eligible on Windows.
func isEligible(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	if info.Mode()&0o111 == 0 {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	var header [2]byte
	n, _ := f.Read(header[:])
	if n == 2 && header[0] == '#' && header[1] == '!' {
		return false
	}
	return true
}
