package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	"mag-surveyor/internal/survey"

	"go.bug.st/serial"
)

// ErrBadLine is returned by ParseLine for lines outside the protocol.
var ErrBadLine = errors.New("sensor: malformed line")

// Serial reads a line protocol from a serial port:
//
//	MAG,x,y,z
//	UNCAL,x,y,z,bx,by,bz
//
// Values are in µT. Unknown or malformed lines are skipped.
type Serial struct {
	Port     string
	BaudRate int

	skipped atomic.Uint64
}

func (p *Serial) Name() string { return "serial:" + p.Port }

// Skipped returns how many lines were dropped as malformed.
func (p *Serial) Skipped() uint64 { return p.skipped.Load() }

// Run opens the port and feeds the sampler until ctx is cancelled or the
// port fails.
func (p *Serial) Run(ctx context.Context, s *Sampler) error {
	baud := p.BaudRate
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(p.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", p.Port, err)
	}
	defer port.Close()

	// Closing the port unblocks the pending read.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer stop()

	err = p.consume(port, s)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (p *Serial) consume(r io.Reader, s *Sampler) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := ApplyLine(line, s); err != nil {
			if n := p.skipped.Add(1); n == 1 || n%100 == 0 {
				log.Printf("sensor: %s: skipping line %q (%d skipped so far)", p.Name(), line, n)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read serial port %s: %w", p.Port, err)
	}
	return nil
}

// Line is one decoded protocol line.
type Line struct {
	Uncalibrated bool
	Field        survey.Vec3
	Bias         survey.Vec3
}

// ParseLine decodes a single protocol line.
func ParseLine(line string) (Line, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	var out Line
	var want int
	switch strings.ToUpper(strings.TrimSpace(parts[0])) {
	case "MAG":
		want = 4
	case "UNCAL":
		out.Uncalibrated = true
		want = 7
	default:
		return Line{}, fmt.Errorf("%w: unknown tag %q", ErrBadLine, parts[0])
	}
	if len(parts) != want {
		return Line{}, fmt.Errorf("%w: want %d fields, got %d", ErrBadLine, want, len(parts))
	}
	vals := make([]float64, 0, want-1)
	for _, f := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: %v", ErrBadLine, err)
		}
		vals = append(vals, v)
	}
	copy(out.Field[:], vals[0:3])
	if out.Uncalibrated {
		copy(out.Bias[:], vals[3:6])
	}
	return out, nil
}

// ApplyLine parses line and writes it into the sampler.
func ApplyLine(line string, s *Sampler) error {
	l, err := ParseLine(line)
	if err != nil {
		return err
	}
	if l.Uncalibrated {
		s.SetUncalibrated(l.Field, l.Bias)
	} else {
		s.SetCalibrated(l.Field)
	}
	return nil
}

// ListPorts returns the serial ports present on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
