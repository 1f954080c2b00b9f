package easyeda

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// componentResponse is the envelope of /api/products/{id}/components.
type componentResponse struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// document is the "result" object: symbol data plus the package.
type document struct {
	UUID          string         `json:"uuid"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Thumb         string         `json:"thumb"`
	SMT           bool           `json:"SMT"`
	LCSC          lcscInfo       `json:"lcsc"`
	DataStr       dataStr        `json:"dataStr"`
	PackageDetail *packageDetail `json:"packageDetail"`
}

type lcscInfo struct {
	Number string `json:"number"`
	URL    string `json:"url"`
}

type packageDetail struct {
	UUID    string  `json:"uuid"`
	Title   string  `json:"title"`
	DataStr dataStr `json:"dataStr"`
}

type dataStr struct {
	Head  head     `json:"head"`
	Shape []string `json:"shape"`
}

type head struct {
	X     flexFloat  `json:"x"`
	Y     flexFloat  `json:"y"`
	CPara paramTable `json:"c_para"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*f = 0
		return nil //nolint:nilerr // malformed origins fall back to 0
	}
	*f = flexFloat(v)
	return nil
}

// paramTable is c_para. Values are usually strings but numbers and
// nested objects occur; those are kept as their JSON text.
type paramTable map[string]string

func (p *paramTable) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*p = paramTable{}
		return nil //nolint:nilerr // c_para is optional
	}
	out := make(paramTable, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = strings.TrimSpace(s)
			continue
		}
		out[k] = string(v)
	}
	*p = out
	return nil
}

// svgNodeAttrs is the JSON payload of the footprint SVGNODE primitive,
// which carries the 3-D model reference.
type svgNodeAttrs struct {
	Attrs struct {
		UUID      string `json:"uuid"`
		Title     string `json:"title"`
		COrigin   string `json:"c_origin"`
		Z         string `json:"z"`
		CRotation string `json:"c_rotation"`
		CEtype    string `json:"c_etype"`
	} `json:"attrs"`
}

// isEmptyResult reports whether a raw "result" holds no document.
func isEmptyResult(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "[]" || s == "{}"
}
