//go:build windows

package driver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows/registry"
)

// peakInstallDir looks up the PEAK-System driver package in the uninstall
// registry so the DLL can be found when it is not on the search path.
func peakInstallDir() string {
	const uninstall = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`

	views := []struct {
		label  string
		access uint32
	}{
		{"64", registry.READ | registry.WOW64_64KEY},
		{"32", registry.READ | registry.WOW64_32KEY},
		{"default", registry.READ},
	}

	for _, view := range views {
		if path := findPeakInView(uninstall, view.label, view.access); path != "" {
			return path
		}
	}
	return ""
}

func dirFromUninstallString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.Trim(s, `"`)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return ""
	}
	return filepath.Dir(s)
}

func findPeakInView(uninstall, label string, access uint32) string {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, uninstall, access)
	if err != nil {
		log.Debug().Str("view", label).Err(err).Msg("open uninstall key failed")
		return ""
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		log.Debug().Str("view", label).Err(err).Msg("read uninstall subkeys failed")
		return ""
	}

	for _, name := range names {
		sk, err := registry.OpenKey(registry.LOCAL_MACHINE, uninstall+`\`+name, access)
		if err != nil {
			continue
		}
		publisher, _, _ := sk.GetStringValue("Publisher")
		displayName, _, _ := sk.GetStringValue("DisplayName")
		install, _, _ := sk.GetStringValue("InstallLocation")
		unins, _, _ := sk.GetStringValue("UninstallString")
		sk.Close()

		if !looksPeak(publisher) && !looksPeak(displayName) {
			continue
		}
		log.Debug().Str("view", label).Str("subkey", name).Str("name", displayName).Msg("matched PEAK-System package")

		if install = strings.TrimSpace(install); install != "" && hasPCANDLL(install) {
			return filepath.Clean(install)
		}
		if dir := dirFromUninstallString(unins); dir != "" && hasPCANDLL(dir) {
			return dir
		}
	}
	return ""
}

func looksPeak(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Contains(s, "peak-system") || strings.Contains(s, "pcan-basic")
}

func hasPCANDLL(dir string) bool {
	for _, sub := range []string{"", "x64", "Win64", "x86", "Win32"} {
		if _, err := os.Stat(filepath.Join(dir, sub, pcanDLLName)); err == nil {
			return true
		}
	}
	return false
}
