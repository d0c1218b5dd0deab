package bus

import "errors"

var (
	// ErrNoCandidatesFound means no /dev/i2c-N node exists (i2c-dev not loaded)
	ErrNoCandidatesFound = errors.New("no i2c devices found")

	// ErrConnectorNotFound means no DRM connector has the requested name
	ErrConnectorNotFound = errors.New("no such output")

	// ErrEmbeddedPanel means the connector is an eDP panel, which has no DDC/CI
	ErrEmbeddedPanel = errors.New("embedded display port panels do not support DDC/CI")

	// ErrNoDDCChannel means the connector exposes no I2C device in a known layout
	ErrNoDDCChannel = errors.New("no i2c device for output")
)
