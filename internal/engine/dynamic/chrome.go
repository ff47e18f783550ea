// internal/engine/dynamic/chrome.go
package dynamic

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

// chromeBinaries are looked up on PATH, most specific first.
var chromeBinaries = []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser", "chrome"}

// installDirs lists install locations per GOOS. Entries starting with an
// environment variable are expanded and skipped when the variable is unset.
var installDirs = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"${HOME}/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	},
	"windows": {
		`${ProgramFiles}\Google\Chrome\Application\chrome.exe`,
		`${ProgramFiles(x86)}\Google\Chrome\Application\chrome.exe`,
		`${LocalAppData}\Google\Chrome\Application\chrome.exe`,
	},
	"linux": {
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"${HOME}/.local/share/flatpak/exports/bin/org.chromium.Chromium",
	},
}

// FindChrome returns the first usable browser from, in order: preferred,
// CHROME_PATH, the install locations of this OS and PATH. An empty result
// leaves the choice to chromedp.
func FindChrome(preferred string) string {
	for _, path := range chromeCandidates(runtime.GOOS, preferred, os.Getenv) {
		if isExecutable(path) {
			log.Debug().Str("path", path).Msg("Chrome found")
			return path
		}
	}
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			log.Debug().Str("path", path).Msg("Chrome found in PATH")
			return path
		}
	}

	log.Warn().Str("os", runtime.GOOS).Msg("Chrome not found, falling back to chromedp default")
	return ""
}

func chromeCandidates(goos, preferred string, getenv func(string) string) []string {
	var out []string
	for _, p := range append([]string{preferred, getenv("CHROME_PATH")}, installDirs[goos]...) {
		missing := false
		p = os.Expand(p, func(k string) string {
			v := getenv(k)
			missing = missing || v == ""
			return v
		})
		if p != "" && !missing {
			out = append(out, filepath.Clean(p))
		}
	}
	return out
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode()&0111 != 0
}
