// Package ddctest provides a simulated DDC/CI display for tests and examples.
//
// A Display answers Get/Set VCP Feature requests the way a monitor does and
// can be told to misbehave on upcoming reads and writes. An Opener serves displays and
// open failures by device path, standing in for /dev/i2c-N.
package ddctest

import (
	"bytes"
	"fmt"
	"syscall"

	"periph.io/x/conn/v3/physic"

	"github.com/brightctl/go-ddcci/protocol"
)

// Fault is a misbehaviour applied to one transfer. Writes accept only
// FaultNone and FaultIO.
type Fault int

const (
	// FaultNone answers normally
	FaultNone Fault = iota

	// FaultIO fails the transfer with EIO
	FaultIO

	// FaultBadChecksum answers with a corrupted checksum byte
	FaultBadChecksum

	// FaultTruncated answers with a length byte larger than the read
	FaultTruncated

	// FaultNull answers with the DDC/CI null message
	FaultNull

	// FaultZeros answers with an all-zero buffer
	FaultZeros

	// FaultStale answers with a reply for another VCP code
	FaultStale
)

// Feature is the state of one VCP feature.
type Feature struct {
	Current uint16
	Max     uint16
}

// Display simulates a monitor's DDC/CI endpoint. It is not safe for
// concurrent use.
type Display struct {
	features    map[byte]*Feature
	faults      []Fault
	writeFaults []Fault
	absent      bool

	pending []byte
	writes  [][]byte
	reads   int
	opens   int
	closes  int
}

// NewDisplay returns a display whose brightness is current out of max.
func NewDisplay(current, max uint16) *Display {
	return &Display{
		features: map[byte]*Feature{
			protocol.VCPBrightness: {Current: current, Max: max},
		},
	}
}

// NewAbsent returns a bus with nothing listening on the DDC/CI address:
// every transfer is NAKed.
func NewAbsent() *Display {
	return &Display{absent: true, features: map[byte]*Feature{}}
}

// SetFeature adds or replaces a VCP feature.
func (d *Display) SetFeature(code byte, current, max uint16) {
	d.features[code] = &Feature{Current: current, Max: max}
}

// RemoveFeature makes code unsupported.
func (d *Display) RemoveFeature(code byte) {
	delete(d.features, code)
}

// Feature returns the state of code, or nil when unsupported.
func (d *Display) Feature(code byte) *Feature {
	return d.features[code]
}

// Brightness returns the current brightness value.
func (d *Display) Brightness() uint16 {
	if f := d.features[protocol.VCPBrightness]; f != nil {
		return f.Current
	}
	return 0
}

// InjectFaults queues faults for the next reads, one per read.
func (d *Display) InjectFaults(faults ...Fault) {
	d.faults = append(d.faults, faults...)
}

// InjectWriteFaults queues faults for the next writes, one per write.
// A failed write never reaches the display.
func (d *Display) InjectWriteFaults(faults ...Fault) {
	d.writeFaults = append(d.writeFaults, faults...)
}

// FailAll makes every following read fail with fault.
func (d *Display) FailAll(fault Fault) {
	d.faults = nil
	for i := 0; i < 64; i++ {
		d.faults = append(d.faults, fault)
	}
}

// Writes returns every frame written to the display, in order.
func (d *Display) Writes() [][]byte {
	return d.writes
}

// SetWrites returns the Set VCP Feature frames written to the display.
func (d *Display) SetWrites() [][]byte {
	var out [][]byte
	for _, w := range d.writes {
		if req, err := protocol.DecodeRequest(w); err == nil && req.Command == protocol.CmdSetVCPFeature {
			out = append(out, w)
		}
	}
	return out
}

// Reads returns the number of read transfers attempted.
func (d *Display) Reads() int {
	return d.reads
}

// Opens and Closes count handles served by an Opener.
func (d *Display) Opens() int  { return d.opens }
func (d *Display) Closes() int { return d.closes }

func (d *Display) String() string {
	return "ddctest display"
}

// SetSpeed accepts any speed.
func (d *Display) SetSpeed(physic.Frequency) error {
	return nil
}

// Tx handles one addressed transfer.
func (d *Display) Tx(addr uint16, w, r []byte) error {
	if d.absent || addr != protocol.SlaveAddress {
		// Nobody acknowledges the address
		return syscall.ENXIO
	}
	if len(w) > 0 {
		if err := d.write(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return d.read(r)
	}
	return nil
}

func (d *Display) write(w []byte) error {
	fault := FaultNone
	if len(d.writeFaults) > 0 {
		fault = d.writeFaults[0]
		d.writeFaults = d.writeFaults[1:]
	}
	switch fault {
	case FaultNone:
	case FaultIO:
		return syscall.EIO
	default:
		return fmt.Errorf("ddctest: fault %d does not apply to writes", fault)
	}

	d.writes = append(d.writes, bytes.Clone(w))
	d.pending = nil

	req, err := protocol.DecodeRequest(w)
	if err != nil {
		// Displays silently drop malformed requests
		return nil
	}

	switch req.Command {
	case protocol.CmdGetVCPFeature:
		f := d.features[req.VCPCode]
		if f == nil {
			d.pending = protocol.EncodeReply(protocol.Reply{
				ResultCode: protocol.ResultUnsupportedVCP,
				VCPCode:    req.VCPCode,
			})
			return nil
		}
		d.pending = protocol.EncodeReply(protocol.Reply{
			VCPCode: req.VCPCode,
			Max:     f.Max,
			Current: f.Current,
		})
	case protocol.CmdSetVCPFeature:
		if f := d.features[req.VCPCode]; f != nil {
			f.Current = req.Value
		}
	}
	return nil
}

func (d *Display) read(r []byte) error {
	d.reads++

	fault := FaultNone
	if len(d.faults) > 0 {
		fault = d.faults[0]
		d.faults = d.faults[1:]
	}

	reply := d.pending
	d.pending = nil
	if reply == nil {
		reply = protocol.NullReply()
	}

	switch fault {
	case FaultIO:
		return syscall.EIO
	case FaultBadChecksum:
		reply = bytes.Clone(reply)
		reply[len(reply)-1] ^= 0xFF
	case FaultTruncated:
		reply = bytes.Clone(reply)
		reply[1] = protocol.LengthFlag | protocol.LengthMask
	case FaultNull:
		reply = protocol.NullReply()
	case FaultZeros:
		reply = nil
	case FaultStale:
		reply = protocol.EncodeReply(protocol.Reply{VCPCode: 0xFE, Max: 1, Current: 1})
	case FaultNone:
	default:
		return fmt.Errorf("ddctest: unknown fault %d", fault)
	}

	clear(r)
	copy(r, reply)
	return nil
}
