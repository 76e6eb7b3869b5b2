package song

import "strings"

// Device kinds as reported by the content library.
const (
	kindInstrument  = "instrument"
	kindDrumMachine = "drum_machine"
	kindAudioEffect = "audio_effect"
	kindMIDIEffect  = "midi_effect"
	kindRack        = "rack"
)

// LoadDevice instantiates a library item onto a track's device chain
// and reports what changed.
func (s *Song) LoadDevice(trackIndex int, name, uri, kind string) (LoadedItemResult, error) {
	t, err := s.track(trackIndex)
	if err != nil {
		return LoadedItemResult{}, err
	}

	before := make(map[string]bool, len(t.Devices))
	for _, d := range t.Devices {
		before[d.Name] = true
	}

	t.Devices = append(t.Devices, newDevice(name, kind))

	res := LoadedItemResult{
		Loaded:    true,
		ItemName:  name,
		TrackName: t.Name,
		URI:       uri,
	}
	for _, d := range t.Devices {
		res.DevicesAfter = append(res.DevicesAfter, d.Name)
		if !before[d.Name] {
			res.NewDevices = append(res.NewDevices, d.Name)
		}
	}
	return res, nil
}

func newDevice(name, kind string) *Device {
	params := []*Parameter{
		{Name: "Device On", Value: 1, Min: 0, Max: 1},
	}
	switch kind {
	case kindAudioEffect:
		params = append(params, &Parameter{Name: "Dry/Wet", Value: 1, Min: 0, Max: 1})
		lower := strings.ToLower(name)
		if strings.Contains(lower, "filter") || strings.Contains(lower, "eq") {
			params = append(params, &Parameter{Name: "Frequency", Value: 20000, Min: 20, Max: 20000})
		}
	case kindInstrument, kindDrumMachine, kindRack:
		params = append(params,
			&Parameter{Name: "Volume", Value: 0.85, Min: 0, Max: 1},
			&Parameter{Name: "Pan", Value: 0, Min: -1, Max: 1},
		)
	}
	return &Device{
		Name:       name,
		ClassName:  strings.ReplaceAll(name, " ", ""),
		Type:       deviceType(kind),
		Parameters: params,
	}
}

func deviceType(kind string) string {
	switch kind {
	case kindAudioEffect:
		return "audio_effect"
	case kindMIDIEffect:
		return "midi_effect"
	default:
		return "instrument"
	}
}
