package kicad

// footprintLayers maps EasyEDA layer ids onto KiCad layer names.
var footprintLayers = map[string]string{
	"1":   "F.Cu",
	"2":   "B.Cu",
	"3":   "F.SilkS",
	"4":   "B.SilkS",
	"5":   "F.Paste",
	"6":   "B.Paste",
	"7":   "F.Mask",
	"8":   "B.Mask",
	"10":  "Edge.Cuts",
	"12":  "Dwgs.User",
	"13":  "F.Fab",
	"14":  "B.Fab",
	"15":  "Dwgs.User",
	"99":  "F.CrtYd",
	"100": "F.Fab",
	"101": "F.Fab",
}

// Layer returns the KiCad layer for a source layer tag.
func Layer(tag string) (string, bool) {
	l, ok := footprintLayers[tag]
	return l, ok
}

// padLayers are the layer sets of the pad mount variants.
var (
	smdTopLayers    = []string{"F.Cu", "F.Paste", "F.Mask"}
	smdBottomLayers = []string{"B.Cu", "B.Paste", "B.Mask"}
	throughLayers   = []string{"*.Cu", "*.Mask"}
)
