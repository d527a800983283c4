package quintctl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		repeat time.Duration
		want   Action
	}{
		{"", nil, 0, Dump{}},
		{"dump", []string{"OutputVoltage"}, 0, Dump{Names: []string{"OutputVoltage"}}},
		{"dumpall", nil, 0, DumpAll{}},
		{"get", []string{"OutputVoltage", "BatteryMode"}, 0, Get{Names: []string{"OutputVoltage", "BatteryMode"}}},
		{"get", []string{"OutputVoltage"}, 2 * time.Second, Get{Names: []string{"OutputVoltage"}, Interval: 2 * time.Second}},
		{"set", []string{"SET_SERVICE_MODE_BY_PC", "1"}, 0, Set{Name: "SET_SERVICE_MODE_BY_PC", Value: "1"}},
		{"monitor", nil, time.Second, Monitor{Interval: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAction(tt.name, tt.params, tt.repeat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestParseActionInvalid(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		repeat time.Duration
	}{
		{"reboot", nil, 0},
		{"get", nil, 0},
		{"set", []string{"SET_SERVICE_MODE_BY_PC"}, 0},
		{"set", []string{"SET_SERVICE_MODE_BY_PC", "1", "2"}, 0},
		{"dumpall", []string{"OutputVoltage"}, 0},
		{"monitor", []string{"5"}, 0},
		{"monitor", nil, -time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAction(tt.name, tt.params, tt.repeat)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestCheckAction(t *testing.T) {
	c := Quint24DC()

	assert.NoError(t, CheckAction(c, Get{Names: []string{"OutputVoltage", "0x7490"}}))
	assert.NoError(t, CheckAction(c, Dump{}))
	assert.NoError(t, CheckAction(c, DumpAll{}))
	assert.NoError(t, CheckAction(c, Monitor{}))
	assert.NoError(t, CheckAction(c, Set{Name: "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME", Value: "120"}))

	assert.ErrorIs(t, CheckAction(c, Get{Names: []string{"nope"}}), ErrUnknownRegister)
	assert.ErrorIs(t, CheckAction(c, Dump{Names: []string{"nope"}}), ErrUnknownRegister)
	assert.ErrorIs(t, CheckAction(c, Set{Name: "nope", Value: "1"}), ErrUnknownRegister)
	assert.ErrorIs(t, CheckAction(c, Set{Name: "OutputVoltage", Value: "1"}), ErrNotWritable)
}

func TestActionNames(t *testing.T) {
	params := map[string][]string{
		"get": {"OutputVoltage"},
		"set": {"TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME", "120"},
	}
	for _, name := range Actions {
		a, err := ParseAction(name, params[name], 0)
		require.NoError(t, err)
		assert.Equal(t, name, a.Action())
	}

	a, err := ParseAction("set", params["set"], 0)
	require.NoError(t, err)
	assert.Equal(t, "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME", a.(Set).Name)
}
