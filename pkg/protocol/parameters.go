package protocol

import "fmt"

// Parameter identifies an entry in the NetworkParameter catalog.
type Parameter uint8

const (
	ParamMACAddress       Parameter = 0x01
	ParamNWKPANID         Parameter = 0x05
	ParamNWKAddress       Parameter = 0x07
	ParamNWKExtendedPANID Parameter = 0x08
	ParamApsDesignedCoord Parameter = 0x09
	ParamSecurityMode     Parameter = 0x10
)

func (p Parameter) String() string {
	switch p {
	case ParamMACAddress:
		return "MAC_ADDR"
	case ParamNWKPANID:
		return "NWK_PANID"
	case ParamNWKAddress:
		return "NWK_ADDR"
	case ParamNWKExtendedPANID:
		return "NWK_EXTENDED_PANID"
	case ParamApsDesignedCoord:
		return "APS_DESIGNED_COORDINATOR"
	case ParamSecurityMode:
		return "SECURITY_MODE"
	default:
		return fmt.Sprintf("Parameter(0x%02X)", uint8(p))
	}
}

// ParamFormat describes the wire width of a parameter's value.
type ParamFormat uint8

const (
	Format1Byte ParamFormat = 1
	Format2Byte ParamFormat = 2
	Format8Byte ParamFormat = 8
)

// ParamInfo is the catalog entry for a single network parameter: its wire
// width. No display format is stored.
type ParamInfo struct {
	Width ParamFormat
}

// Parameters is the static parameter_id -> (wire_width_code) catalog from
// spec.md §3. Sweep order in Connection.startup follows this declaration
// order, matching pyconz's NetworkParameter enum iteration.
var Parameters = []Parameter{
	ParamMACAddress,
	ParamNWKPANID,
	ParamNWKAddress,
	ParamNWKExtendedPANID,
	ParamApsDesignedCoord,
	ParamSecurityMode,
}

var paramInfo = map[Parameter]ParamInfo{
	ParamMACAddress:       {Width: Format8Byte},
	ParamNWKPANID:         {Width: Format2Byte},
	ParamNWKAddress:       {Width: Format2Byte},
	ParamNWKExtendedPANID: {Width: Format8Byte},
	ParamApsDesignedCoord: {Width: Format1Byte},
	ParamSecurityMode:     {Width: Format1Byte},
}

// Lookup returns the catalog entry for p, or false if p is not a known
// parameter id.
func Lookup(p Parameter) (ParamInfo, bool) {
	info, ok := paramInfo[p]
	return info, ok
}
