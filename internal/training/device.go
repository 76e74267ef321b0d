package training

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDevice is wrapped by ParseDevice's failure so RPC handlers can
// map it onto InvalidArgument without parsing error text (§7).
var ErrInvalidDevice = errors.New("training: invalid device")

// Device is a parsed device string (§6: "cpu", "gpu", "cuda:<n>").
type Device struct {
	Kind  string // "cpu", "gpu", or "cuda"
	Index int    // meaningful only when Kind == "cuda"
}

// ParseDevice validates a device string, mirroring the original
// implementation's parse_device (bastionai_app/src/utils.rs): "cpu" and
// "gpu" pass through, "cuda:<n>" requires a non-negative integer index,
// anything else is a caller error.
func ParseDevice(device string) (Device, error) {
	switch {
	case device == "cpu":
		return Device{Kind: "cpu"}, nil
	case device == "gpu":
		return Device{Kind: "gpu"}, nil
	case strings.HasPrefix(device, "cuda:"):
		idx, err := strconv.Atoi(device[len("cuda:"):])
		if err != nil || idx < 0 {
			return Device{}, fmt.Errorf("%w: %q", ErrInvalidDevice, device)
		}
		return Device{Kind: "cuda", Index: idx}, nil
	default:
		return Device{}, fmt.Errorf("%w: %q", ErrInvalidDevice, device)
	}
}
