package modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBytes(t *testing.T) {
	values := []uint16{0x5DCC, 0x0001}
	bb := registersToBytes(values)
	assert.Equal(t, []byte{0x5D, 0xCC, 0x00, 0x01}, bb)

	got, err := bytesToRegisters(bb)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = bytesToRegisters([]byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestParity(t *testing.T) {
	assert.Equal(t, "E", goburrowParity("even"))
	assert.Equal(t, "O", goburrowParity("odd"))
	assert.Equal(t, "N", goburrowParity("none"))
}
