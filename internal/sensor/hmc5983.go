package sensor

import (
	"context"
	"fmt"
	"time"

	"mag-surveyor/internal/survey"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// HMC5983 register map.
const (
	hmcRegCRA  = 0x00
	hmcRegCRB  = 0x01
	hmcRegMode = 0x02
	hmcRegData = 0x03 // X MSB, X LSB, Z MSB, Z LSB, Y MSB, Y LSB

	HMC5983DefaultAddr = 0x1E
)

// LSB per gauss for each gain code, XY and Z axes.
var (
	hmcGainXY = [8]float64{1370, 1090, 820, 660, 440, 390, 330, 230}
	hmcGainZ  = [8]float64{1330, 980, 660, 600, 400, 355, 295, 205}
)

// HMC5983 polls a Honeywell HMC5983/HMC5883L over I²C. The chip reports the
// raw field only, so the uncalibrated stream is the raw field, the bias is the
// configured hard-iron estimate and the calibrated stream is raw minus bias.
type HMC5983 struct {
	Bus      string // empty selects the first bus
	Addr     uint16
	GainCode int
	Bias     survey.Vec3
	Interval time.Duration
}

func (h *HMC5983) Name() string { return "hmc5983" }

// Run initialises the host drivers, configures the chip for continuous
// measurement and polls it every Interval.
func (h *HMC5983) Run(ctx context.Context, s *Sampler) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(h.Bus)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", h.Bus, err)
	}
	defer bus.Close()

	dev, err := h.configure(bus)
	if err != nil {
		return err
	}

	interval := h.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			raw, err := h.read(dev)
			if err != nil {
				return err
			}
			s.SetUncalibrated(raw, h.Bias)
			s.SetCalibrated(subtract(raw, h.Bias))
		}
	}
}

func (h *HMC5983) gain() int {
	return gainCode(h.GainCode)
}

// gainCode maps codes outside 0..7 to the power-on default, 1.
func gainCode(code int) int {
	if code < 0 || code >= len(hmcGainXY) {
		return 1
	}
	return code
}

func (h *HMC5983) configure(bus i2c.Bus) (*i2c.Dev, error) {
	addr := h.Addr
	if addr == 0 {
		addr = HMC5983DefaultAddr
	}
	dev := &i2c.Dev{Addr: addr, Bus: bus}
	// 8-sample averaging, 15 Hz output rate, normal bias; gain; continuous mode.
	regs := [][2]byte{
		{hmcRegCRA, 0b11<<5 | 0b100<<2},
		{hmcRegCRB, byte(h.gain()) << 5},
		{hmcRegMode, 0x00},
	}
	for _, r := range regs {
		if err := dev.Tx(r[:], nil); err != nil {
			return nil, fmt.Errorf("hmc5983: write register 0x%02x: %w", r[0], err)
		}
	}
	time.Sleep(10 * time.Millisecond)
	return dev, nil
}

// read returns the field in µT.
func (h *HMC5983) read(dev *i2c.Dev) (survey.Vec3, error) {
	var buf [6]byte
	if err := dev.Tx([]byte{hmcRegData}, buf[:]); err != nil {
		return survey.Vec3{}, fmt.Errorf("hmc5983: read data: %w", err)
	}
	return DecodeHMC5983(buf, h.gain()), nil
}

// DecodeHMC5983 converts the six data registers (X, Z, Y order, big endian)
// into a field vector in µT. A gain code outside 0..7 is read as 1.
func DecodeHMC5983(data [6]byte, code int) survey.Vec3 {
	g := gainCode(code)
	x := int16(uint16(data[0])<<8 | uint16(data[1]))
	z := int16(uint16(data[2])<<8 | uint16(data[3]))
	y := int16(uint16(data[4])<<8 | uint16(data[5]))
	// 1 gauss = 100 µT
	return survey.Vec3{
		float64(x) / hmcGainXY[g] * 100,
		float64(y) / hmcGainXY[g] * 100,
		float64(z) / hmcGainZ[g] * 100,
	}
}
