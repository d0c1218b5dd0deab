package bus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Vendor is the GPU family an I2C adapter belongs to, guessed from its name.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorIntel
	VendorAMD
	VendorNVIDIA
)

func (v Vendor) String() string {
	switch v {
	case VendorIntel:
		return "intel"
	case VendorAMD:
		return "amd"
	case VendorNVIDIA:
		return "nvidia"
	default:
		return "unknown"
	}
}

// adapterPatterns maps lowercase substrings of adapter names to vendors.
var adapterPatterns = []struct {
	substr string
	vendor Vendor
}{
	{"i915", VendorIntel},
	{"gmbus", VendorIntel},
	{"dpddc", VendorIntel},
	{"i2c-designware", VendorIntel},
	{"synopsys designware", VendorIntel},
	{"amdgpu", VendorAMD},
	{"radeon", VendorAMD},
	{"nvidia", VendorNVIDIA},
	{"nvkm", VendorNVIDIA},
}

// VendorOf classifies an adapter name such as "i915 gmbus dpb" or
// "AMDGPU DM i2c hw bus 2".
func VendorOf(adapter string) Vendor {
	name := strings.ToLower(adapter)
	for _, p := range adapterPatterns {
		if strings.Contains(name, p.substr) {
			return p.vendor
		}
	}
	return VendorUnknown
}

// Candidate is an I2C bus that may carry a display's DDC channel.
type Candidate struct {
	// Path is the character device, e.g. /dev/i2c-5
	Path string

	// Number is N in i2c-N
	Number int

	// Adapter is the kernel adapter name, empty if unreadable
	Adapter string

	Vendor Vendor

	// Connector is the DRM connector (e.g. "DP-1") whose DDC channel this
	// bus is, empty when the bus is not linked from a connected output
	Connector string
}

func (c Candidate) String() string {
	if c.Connector != "" {
		return fmt.Sprintf("%s (%s, %s)", c.Path, c.Adapter, c.Connector)
	}
	if c.Adapter != "" {
		return fmt.Sprintf("%s (%s)", c.Path, c.Adapter)
	}
	return c.Path
}

// tier orders candidates: connected outputs, then GPU adapters, then the rest.
func (c Candidate) tier() int {
	switch {
	case c.Connector != "":
		return 0
	case c.Vendor != VendorUnknown:
		return 1
	default:
		return 2
	}
}

var busNameRe = regexp.MustCompile(`^i2c-([0-9]+)$`)

// busNumber returns N for a name of the form i2c-N.
func busNumber(name string) (int, bool) {
	m := busNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
