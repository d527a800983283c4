package modbus

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	gmodbus "github.com/goburrow/modbus"
	"github.com/rwirdemann/quintctl"
)

type handler interface {
	Connect() error
	Close() error
}

// GoburrowAdapter is a port on top of goburrow/modbus.
type GoburrowAdapter struct {
	handler handler
	client  gmodbus.Client
	holding bool
}

// NewGoburrowAdapter connects to address, a serial device for scheme rtu and host:port for tcp.
func NewGoburrowAdapter(scheme, address string, config quintctl.Config) (*GoburrowAdapter, error) {
	timeout := time.Duration(config.Serial.Timeout) * time.Millisecond

	var h handler
	var client gmodbus.Client
	switch scheme {
	case "rtu":
		rtu := gmodbus.NewRTUClientHandler(address)
		rtu.BaudRate = config.Serial.Speed
		rtu.DataBits = config.Serial.DataBits
		rtu.StopBits = config.Serial.StopBits
		rtu.Parity = goburrowParity(config.Serial.Parity)
		rtu.SlaveId = config.UnitID
		rtu.Timeout = timeout
		h, client = rtu, gmodbus.NewClient(rtu)
	case "tcp":
		tcp := gmodbus.NewTCPClientHandler(address)
		tcp.SlaveId = config.UnitID
		tcp.Timeout = timeout
		h, client = tcp, gmodbus.NewClient(tcp)
	default:
		return nil, fmt.Errorf("unsupported scheme for goburrow driver: %s", scheme)
	}

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("open %s: %w", address, err)
	}
	slog.Info("modbus link open", "url", scheme+"://"+address, "driver", "goburrow", "unit_id", config.UnitID)

	return &GoburrowAdapter{handler: h, client: client, holding: config.RegisterType == "holding"}, nil
}

func (a *GoburrowAdapter) Close() error {
	return a.handler.Close()
}

func (a *GoburrowAdapter) ReadRegisters(addr uint16, quantity uint16) ([]uint16, error) {
	var bb []byte
	var err error
	if a.holding {
		bb, err = a.client.ReadHoldingRegisters(addr, quantity)
	} else {
		bb, err = a.client.ReadInputRegisters(addr, quantity)
	}
	if err != nil {
		slog.Debug("read failed", "addr", addr, "quantity", quantity, "err", err)
		return nil, err
	}
	return bytesToRegisters(bb)
}

func (a *GoburrowAdapter) WriteRegisters(addr uint16, values []uint16) error {
	if _, err := a.client.WriteMultipleRegisters(addr, uint16(len(values)), registersToBytes(values)); err != nil {
		slog.Debug("write failed", "addr", addr, "values", values, "err", err)
		return err
	}
	return nil
}

func bytesToRegisters(bb []byte) ([]uint16, error) {
	if len(bb)%2 != 0 {
		return nil, fmt.Errorf("odd response length %d", len(bb))
	}
	values := make([]uint16, len(bb)/2)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(bb[2*i:])
	}
	return values, nil
}

func registersToBytes(values []uint16) []byte {
	bb := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(bb[2*i:], v)
	}
	return bb
}

func goburrowParity(s string) string {
	switch s {
	case "even":
		return "E"
	case "odd":
		return "O"
	default:
		return "N"
	}
}
