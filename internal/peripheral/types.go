package peripheral

import "fmt"

// Capability is what a peripheral does for the controller.
type Capability uint8

// Peripheral capabilities.
const (
	CapabilityNone Capability = iota
	TemperatureSource
	MagnetSupply
	HeatSwitch
	Compressor
)

// Logical peripheral names as they appear in configuration.
const (
	NameLakeshore  = "lakeshore"
	NameMagnet     = "magnet"
	NameHeatSwitch = "heatswitch"
	NameCompressor = "compressor"
)

var capabilityByName = map[string]Capability{
	NameLakeshore:  TemperatureSource,
	NameMagnet:     MagnetSupply,
	NameHeatSwitch: HeatSwitch,
	NameCompressor: Compressor,
}

// CapabilityFor returns the capability of a logical peripheral name.
func CapabilityFor(name string) (Capability, bool) {
	c, ok := capabilityByName[name]
	return c, ok
}

// Name returns the logical peripheral name that provides c.
func (c Capability) Name() string {
	for name, v := range capabilityByName {
		if v == c {
			return name
		}
	}
	return ""
}

func (c Capability) String() string {
	switch c {
	case TemperatureSource:
		return "temperature-source"
	case MagnetSupply:
		return "magnet-supply"
	case HeatSwitch:
		return "heat-switch"
	case Compressor:
		return "compressor"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}

// MarshalText encodes the capability by its string form.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Declaration is a configured peripheral: where it is expected to live.
type Declaration struct {
	Name       string     `json:"name"`
	Capability Capability `json:"capability"`
	Service    string     `json:"service"`
	Device     string     `json:"device"`
}

// Binding is a live peripheral handle. Device is the identifier the
// service actually reported, which may be longer than the declared one.
// Context is the controller's private communication context on the
// service.
type Binding struct {
	Name       string     `json:"name"`
	Capability Capability `json:"capability"`
	Service    string     `json:"service"`
	Device     string     `json:"device"`
	Context    string     `json:"context"`
}
