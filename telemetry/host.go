package telemetry

import (
	"bufio"
	"os"
	"runtime"
	"strings"
)

// OSName reports the build-time target OS name, not a runtime lookup.
func OSName() string {
	return runtime.GOOS
}

// OSVersion reads /etc/os-release's VERSION_ID directly on Linux, which
// is what every major distribution ships; on any other platform, or if
// the file can't be read, it reports "" rather than failing, matching
// the best-effort posture the rest of this package's ambient information
// collection takes.
func OSVersion() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		const prefix = "VERSION_ID="
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		return strings.Trim(strings.TrimPrefix(line, prefix), `"`)
	}
	return ""
}

// RealHostname reports the machine's configured hostname.
func RealHostname() (string, error) {
	return os.Hostname()
}
