package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPickLibrary(t *testing.T) {
	// fake libraries keyed by path, each listing the procs it exports
	libs := map[string][]string{
		"old.dll":  {"CAN_Initialize", "CAN_Read"},
		"good.dll": pcanProcs,
		"also.dll": pcanProcs,
	}
	open := func(path string) (func(string) error, error) {
		procs, ok := libs[path]
		if !ok {
			return nil, errors.New("module not found")
		}
		return func(proc string) error {
			for _, p := range procs {
				if p == proc {
					return nil
				}
			}
			return errors.New("procedure " + proc + " not found")
		}, nil
	}

	tests := []struct {
		name       string
		candidates []string
		want       string
		wantErr    []string
	}{
		{
			name:       "skips candidate missing an export",
			candidates: []string{"old.dll", "good.dll"},
			want:       "good.dll",
		},
		{
			name:       "skips candidate that fails to load",
			candidates: []string{"missing.dll", "also.dll", "good.dll"},
			want:       "also.dll",
		},
		{
			name:       "reports every failure",
			candidates: []string{"missing.dll", "old.dll"},
			wantErr: []string{
				"failed to load PCANBasic.dll",
				"missing.dll: module not found",
				"old.dll: procedure CAN_Uninitialize not found",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pickLibrary("PCANBasic.dll", tc.candidates, open, pcanProcs)
			if len(tc.wantErr) > 0 {
				require.Error(t, err)
				for _, s := range tc.wantErr {
					require.Contains(t, err.Error(), s)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
