package modbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rwirdemann/quintctl"
	"github.com/simonvetter/modbus"
)

// Adapter is a port on top of simonvetter/modbus.
type Adapter struct {
	client  *modbus.ModbusClient
	regType modbus.RegType
}

func NewAdapter(url string, config quintctl.Config) (*Adapter, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:      url,
		Speed:    uint(config.Serial.Speed),
		DataBits: uint(config.Serial.DataBits),
		Parity:   parity(config.Serial.Parity),
		StopBits: uint(config.Serial.StopBits),
		Timeout:  time.Duration(config.Serial.Timeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	if err = client.SetUnitId(config.UnitID); err != nil {
		return nil, fmt.Errorf("set unit id: %w", err)
	}
	if err = client.Open(); err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	slog.Info("modbus link open", "url", url, "driver", "simonvetter", "unit_id", config.UnitID)

	regType := modbus.INPUT_REGISTER
	if config.RegisterType == "holding" {
		regType = modbus.HOLDING_REGISTER
	}
	return &Adapter{client: client, regType: regType}, nil
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) ReadRegisters(addr uint16, quantity uint16) ([]uint16, error) {
	values, err := a.client.ReadRegisters(addr, quantity, a.regType)
	if err != nil {
		slog.Debug("read failed", "addr", addr, "quantity", quantity, "err", err)
		return nil, err
	}
	return values, nil
}

// WriteRegisters always uses the write multiple registers function, the UPS answers the single
// register variant with an illegal function exception.
func (a *Adapter) WriteRegisters(addr uint16, values []uint16) error {
	if err := a.client.WriteRegisters(addr, values); err != nil {
		slog.Debug("write failed", "addr", addr, "values", values, "err", err)
		return err
	}
	return nil
}

func parity(s string) uint {
	switch s {
	case "even":
		return modbus.PARITY_EVEN
	case "odd":
		return modbus.PARITY_ODD
	default:
		return modbus.PARITY_NONE
	}
}
