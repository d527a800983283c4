package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwirdemann/quintctl"
)

func runArgs(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(quintctl.ErrInvalidArguments))
	assert.Equal(t, 2, exitCode(fmt.Errorf("%w: get needs at least one register", quintctl.ErrInvalidArguments)))
	assert.Equal(t, 1, exitCode(quintctl.ErrUnknownRegister))
	assert.Equal(t, 1, exitCode(fmt.Errorf("%w: %w", quintctl.ErrTransport, errors.New("timeout"))))
}

func TestGet(t *testing.T) {
	code, stdout, stderr := runArgs("-D", "mem://", "get", "OutputVoltage", "SocStateOfCharge")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "OUT_LUI_OutputVoltage: 0 mV\nOUT_LUI_SocStateOfCharge: 0 %\n", stdout)
}

func TestDefaultActionIsDump(t *testing.T) {
	code, stdout, stderr := runArgs("-D", "mem://")
	assert.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, len(quintctl.Quint24DC().Documented()))
	assert.Equal(t, "OUT_LX_Remote: on", lines[0])
}

func TestDumpAllSkip(t *testing.T) {
	code, stdout, stderr := runArgs("-D", "mem://", "dumpall", "--skip-addr", "0x7430,0x7431", "--skip-addr", "FW_VERSION")
	assert.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, "INPUT_ACTUAL_VOLTAGE")
	assert.NotContains(t, stdout, "OUT_LUI_OutputVoltage:")
	assert.NotContains(t, stdout, "FW_VERSION")
	assert.Contains(t, stdout, "OUT_LUI_OutputVoltage2: 0 mV")
}

func TestSet(t *testing.T) {
	code, stdout, stderr := runArgs("-D", "mem://", "set", "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME", "120")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME: wrote 120 [120]\n", stdout)
}

func TestMonitorDefaultSkip(t *testing.T) {
	code, stdout, stderr := runArgs("-D", "mem://", "monitor")
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "OUT_LUI_OutputVoltage2")
	assert.NotContains(t, stdout, "OUT_LUI_OutputVoltage:")
	assert.NotContains(t, stdout, "COUNTER_OPERATION_TIME")

	code, stdout, stderr = runArgs("-D", "mem://", "monitor", "--no-default-skip")
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "OUT_LUI_OutputVoltage:")
	assert.Contains(t, stdout, "COUNTER_OPERATION_TIME")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"unknown action", []string{"reboot"}, 2, "unknown action"},
		{"get without register", []string{"get"}, 2, "at least one register"},
		{"set without value", []string{"set", "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME"}, 2, "exactly 2 parameters"},
		{"negative threshold", []string{"--min-change-rel", "-0.1", "monitor"}, 2, "must not be negative"},
		{"bad flag value", []string{"--repeat", "soon", "get", "OutputVoltage"}, 2, "invalid arguments"},
		{"unknown flag", []string{"--verbose"}, 2, "invalid arguments"},
		{"log level", []string{"--log-level", "loud", "dumpall"}, 2, "log level"},
		{"driver", []string{"--driver", "libmodbus", "dumpall"}, 2, "unknown driver"},
		// the register is checked before the default serial device is opened
		{"unknown register", []string{"get", "nope"}, 1, "unknown register"},
		{"read only", []string{"set", "OutputVoltage", "24000"}, 1, "register not writable"},
		{"out of range", []string{"-D", "mem://", "set", "SET_SERVICE_MODE_BY_PC", "2"}, 1, "value out of range"},
		{"unknown scheme", []string{"-D", "udp://ups:502", "dumpall"}, 1, "transport error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runArgs(tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "error: ")
			assert.Contains(t, stderr, tt.msg)
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quintctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device: mem://
dump: [BatteryMode, FW_VERSION]
registers:
  - name: FW_VERSION
    address: 0x1602
    labels:
      0: unknown
`), 0o600))

	code, stdout, stderr := runArgs("--config", path)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "FW_VERSION: unknown\nOUT_LX_BatteryMode: off\n", stdout)

	// flags win over the file
	code, _, stderr = runArgs("--config", path, "-D", "udp://ups:502")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "udp")
}

func TestRegisterNamesCheckedBeforeOpen(t *testing.T) {
	const device = "/nonexistent/ttyQUINT"

	code, _, stderr := runArgs("-D", device, "--skip-addr", "Bogus", "dumpall")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown register: Bogus")
	assert.NotContains(t, stderr, "transport error")

	path := filepath.Join(t.TempDir(), "quintctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: "+device+"\ndump: [Bogus]\n"), 0o600))
	code, _, stderr = runArgs("--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown register: Bogus")
	assert.NotContains(t, stderr, "transport error")

	require.NoError(t, os.WriteFile(path, []byte("device: "+device+"\nmonitor_skip: [Bogus]\n"), 0o600))
	code, _, stderr = runArgs("--config", path, "monitor")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown register: Bogus")

	// valid names reach the device
	code, _, stderr = runArgs("-D", device, "--skip-addr", "FW_VERSION", "dumpall")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "transport error")
}

func TestMonitorFlagsBeforeAction(t *testing.T) {
	code, stdout, stderr := runArgs("-D", "mem://", "--no-default-skip", "monitor")
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "OUT_LUI_OutputVoltage:")
	assert.Contains(t, stdout, " 0x740b: 0\n")

	// --tui only changes monitor
	code, stdout, stderr = runArgs("--tui", "-D", "mem://", "get", "OutputVoltage")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "OUT_LUI_OutputVoltage: 0 mV\n", stdout)
}
