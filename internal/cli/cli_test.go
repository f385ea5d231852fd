package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AreTor/labaug/internal/app"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"-config", "/test/exp.hcl",
				"--data-dir=/test/data",
				"--dataset=indoors",
				"--nets=resnet18, densenet121",
				"--hard-labels",
				"--device=cpu",
				"--exp=4",
				"--steps=augmenter,trainer",
				"--seed=314",
				"--log-level=debug",
				"--log-format=json",
				"--healthcheck-port=8080",
				"--workers=6",
				"--notify-url=http://monitor:3000/socket.io/",
			},
			expectedConfig: &app.Config{
				ConfigPaths:     []string{"/test/exp.hcl"},
				LogLevel:        "debug",
				LogFormat:       "json",
				HealthcheckPort: 8080,
				WorkerCount:     ptr(6),
				NotifyURL:       ptr("http://monitor:3000/socket.io/"),
				DataDir:         ptr("/test/data"),
				Dataset:         ptr("indoors"),
				Nets:            []string{"resnet18", "densenet121"},
				HardLabels:      ptr(true),
				Device:          ptr("cpu"),
				Exp:             ptr(4),
				Steps:           []string{"augmenter", "trainer"},
				Seed:            ptr(uint64(314)),
			},
		},
		{
			name: "Shorthand flag and defaults leave overrides unset",
			args: []string{"-c", "/short/path"},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"/short/path"},
				LogLevel:    "info",
				LogFormat:   "text",
			},
		},
		{
			name: "Positional arguments for paths",
			args: []string{"/a.hcl", "/b"},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"/a.hcl", "/b"},
				LogLevel:    "info",
				LogFormat:   "text",
			},
		},
		{
			name: "Dataset alone is enough to run",
			args: []string{"-dataset", "caltech", "-hard-labels=false", "-seed=0"},
			expectedConfig: &app.Config{
				LogLevel:   "info",
				LogFormat:  "text",
				Dataset:    ptr("caltech"),
				HardLabels: ptr(false),
				Seed:       ptr(uint64(0)),
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:       "No path triggers clean exit with usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "CONFIG_PATH"), "Expected help text to be printed")
			},
		},
		{
			name:      "Invalid log level returns an error",
			args:      []string{"--log-level=foo", "/path"},
			expectErr: true,
		},
		{
			name:      "Invalid log format returns an error",
			args:      []string{"--log-format=yaml", "/path"},
			expectErr: true,
		},
		{
			name:      "Invalid healthcheck port returns an error",
			args:      []string{"--healthcheck-port=70000", "/path"},
			expectErr: true,
		},
		{
			name:      "Negative worker count returns an error",
			args:      []string{"--workers=-2", "/path"},
			expectErr: true,
		},
		{
			name:      "Empty dataset returns an error",
			args:      []string{"--dataset="},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := &bytes.Buffer{}
			appConfig, shouldExit, err := Parse(tc.args, out)

			if tc.expectErr {
				require.Error(t, err)
				_, isExitError := err.(*ExitError)
				require.True(t, isExitError, "Expected error to be of type ExitError")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectExit, shouldExit)

			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, appConfig); diff != "" {
					t.Errorf("Config mismatch (-want +got):\n%s", diff)
				}
			}
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"a", "b"}, splitList(" a,,b ,"))
	require.Equal(t, []string{}, splitList(""))
}
