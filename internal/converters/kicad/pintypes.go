package kicad

import "strings"

// PinUnspecified is the fallback electrical type.
const PinUnspecified = "unspecified"

// pinTypes maps source electrical codes, numeric or textual, onto KiCad pin types.
var pinTypes = map[string]string{
	"0":              PinUnspecified,
	"1":              "input",
	"2":              "output",
	"3":              "bidirectional",
	"4":              "power_in",
	"unspecified":    PinUnspecified,
	"input":          "input",
	"output":         "output",
	"bidirectional":  "bidirectional",
	"bidi":           "bidirectional",
	"power":          "power_in",
	"power_in":       "power_in",
	"power_out":      "power_out",
	"passive":        "passive",
	"tri_state":      "tri_state",
	"open_collector": "open_collector",
	"open_emitter":   "open_emitter",
	"no_connect":     "no_connect",
}

// PinType maps a source electrical code. Unknown codes report false and
// map to PinUnspecified. An empty code is unspecified and known.
func PinType(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return PinUnspecified, true
	}
	if t, ok := pinTypes[code]; ok {
		return t, true
	}
	return PinUnspecified, false
}
