package config

func preset(scene string, params map[string]float64, line LineConfig) *Config {
	cfg := DefaultConfig()
	cfg.Scene = scene
	cfg.Params = params
	if line.Points > 0 {
		cfg.Line = line
	}
	return cfg
}

func axis(half float64, points int) LineConfig {
	return LineConfig{Start: [3]float64{0, 0, -half}, End: [3]float64{0, 0, half}, Points: points}
}

var Presets = map[string]map[string]*Config{
	"loop": {
		"small": preset("loop", map[string]float64{"diameter": 0.01, "current": 1}, axis(0.02, 101)),
		"large": preset("loop", map[string]float64{"diameter": 0.2, "current": 10}, axis(0.5, 201)),
	},
	"solenoid": {
		"short": preset("solenoid", map[string]float64{"turns": 50, "length": 0.02, "diameter": 0.02, "current": 1}, axis(0.04, 161)),
		"long": preset("solenoid", map[string]float64{"turns": 500, "length": 0.2, "diameter": 0.02, "current": 1}, axis(0.2, 201)),
	},
	"magnet-array": {
		"checker": preset("magnet-array", map[string]float64{"nx": 4, "ny": 4, "pitch": 0.01, "size": 0.008, "polarization": 1.2}, LineConfig{
			Start: [3]float64{-0.03, 0, 0.006}, End: [3]float64{0.03, 0, 0.006}, Points: 241,
		}),
		"strip": preset("magnet-array", map[string]float64{"nx": 8, "ny": 1, "pitch": 0.005, "size": 0.004, "polarization": 1.2}, LineConfig{
			Start: [3]float64{-0.03, 0, 0.004}, End: [3]float64{0.03, 0, 0.004}, Points: 241,
		}),
	},
	"halbach": {
		"ring8": preset("halbach", map[string]float64{"magnets": 8, "radius": 0.03, "size": 0.01, "polarization": 1.3}, LineConfig{
			Start: [3]float64{-0.02, 0, 0}, End: [3]float64{0.02, 0, 0}, Points: 81,
		}),
		"ring16": preset("halbach", map[string]float64{"magnets": 16, "radius": 0.05, "size": 0.012, "polarization": 1.3}, LineConfig{
			Start: [3]float64{-0.04, 0, 0}, End: [3]float64{0.04, 0, 0}, Points: 161,
		}),
	},
	"sensor-sweep": {
		"axial": preset("sensor-sweep", map[string]float64{"diameter": 0.01, "height": 0.005, "polarization": 1.1}, LineConfig{
			Start: [3]float64{0.002, 0, 0.004}, End: [3]float64{0.002, 0, 0.04}, Points: 81, Sweep: true,
		}),
		"radial": preset("sensor-sweep", map[string]float64{"diameter": 0.01, "height": 0.005, "polarization": 1.1}, LineConfig{
			Start: [3]float64{-0.02, 0, 0.005}, End: [3]float64{0.02, 0, 0.005}, Points: 81, Sweep: true,
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, name string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	return names
}
