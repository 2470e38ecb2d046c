package driver

import (
	"fmt"
	"strings"
)

// pcanProcs are the entry points a usable PCANBasic.dll must export.
// CAN_GetErrorText is optional; Status.String covers its absence.
var pcanProcs = []string{"CAN_Initialize", "CAN_Uninitialize", "CAN_Read", "CAN_Write"}

// libraryOpener loads one candidate and returns a lookup for its exports.
type libraryOpener func(path string) (find func(proc string) error, err error)

// pickLibrary returns the first candidate that loads and exports every proc.
// A candidate missing an export is skipped like one that fails to load.
func pickLibrary(name string, candidates []string, open libraryOpener, procs []string) (string, error) {
	var errs []string
	for _, path := range candidates {
		find, err := open(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		usable := true
		for _, proc := range procs {
			if err := find(proc); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", path, err))
				usable = false
				break
			}
		}
		if usable {
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to load %s (%s)", name, strings.Join(errs, "; "))
}
