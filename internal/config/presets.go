package config

import "sort"

// Preset is a named frame size and pace.
type Preset struct {
	Width   int
	Height  int
	DelayMS int
}

var Presets = map[string]*Preset{
	"preview": {Width: 320, Height: 240, DelayMS: 100},
	"default": {Width: DefaultWidth, Height: DefaultHeight, DelayMS: DefaultDelayMS},
	"poster":  {Width: 1280, Height: 960, DelayMS: 100},
	"slow":    {Width: DefaultWidth, Height: DefaultHeight, DelayMS: 250},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
