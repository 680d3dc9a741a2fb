package button

import "sort"

// presets is a small palette of ready-made styles for CLI use and for
// quick feedback states in scripts.
var presets = map[string]Style{
	"ok":      Style{}.WithBackground("#00CC00").WithTextColor("#FFFFFF"),
	"warn":    Style{}.WithBackground("#CCAA00").WithTextColor("#000000"),
	"error":   Style{}.WithBackground("#CC0000").WithTextColor("#FFFFFF"),
	"active":  Style{}.WithBackground("#0066CC").WithTextColor("#FFFFFF"),
	"off":     Style{}.WithBackground("#000000").WithTextColor("#808080"),
	"neutral": Style{}.WithBackground("#333333").WithTextColor("#FFFFFF"),
}

// Preset looks up a named style. The second return value reports
// whether the name is known.
func Preset(name string) (Style, bool) {
	s, ok := presets[name]
	return s, ok
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
