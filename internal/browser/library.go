package browser

// Device kinds.
const (
	KindInstrument  = "instrument"
	KindDrumMachine = "drum_machine"
	KindAudioEffect = "audio_effect"
	KindMIDIEffect  = "midi_effect"
	KindRack        = "rack"
	KindSample      = "sample"
)

func device(name, uri, kind string) *Item {
	return &Item{Name: name, URI: uri, IsDevice: true, IsLoadable: true, Kind: kind}
}

func folder(name, uri string, children ...*Item) *Item {
	return &Item{Name: name, URI: uri, Children: children}
}

// standardLibrary seeds the category roots the host ships with. URIs
// follow the query scheme the real library uses, so items stay
// addressable after the tree is rebuilt.
func standardLibrary() []*Item {
	return []*Item{
		folder("Instruments", "query:Synths",
			device("Analog", "query:Synths#Analog", KindInstrument),
			device("Operator", "query:Synths#Operator", KindInstrument),
			device("Wavetable", "query:Synths#Wavetable", KindInstrument),
			device("Electric", "query:Synths#Electric", KindInstrument),
			device("Tension", "query:Synths#Tension", KindInstrument),
			device("Collision", "query:Synths#Collision", KindInstrument),
			device("Simpler", "query:Synths#Simpler", KindInstrument),
			device("Sampler", "query:Synths#Sampler", KindInstrument),
			device("Instrument Rack", "query:Synths#Instrument%20Rack", KindRack),
		),
		folder("Sounds", "query:Sounds",
			folder("Bass", "query:Sounds#Bass",
				device("Deep Sub Bass", "query:Sounds#Bass:Deep%20Sub%20Bass", KindInstrument),
				device("Picked Bass", "query:Sounds#Bass:Picked%20Bass", KindInstrument),
				device("Reese Bass", "query:Sounds#Bass:Reese%20Bass", KindInstrument),
			),
			folder("Keys", "query:Sounds#Keys",
				device("Grand Piano", "query:Sounds#Keys:Grand%20Piano", KindInstrument),
				device("Mark One Classic", "query:Sounds#Keys:Mark%20One%20Classic", KindInstrument),
			),
			folder("Pad", "query:Sounds#Pad",
				device("Glacial Pad", "query:Sounds#Pad:Glacial%20Pad", KindInstrument),
				device("Warm Analog Pad", "query:Sounds#Pad:Warm%20Analog%20Pad", KindInstrument),
			),
			folder("Strings", "query:Sounds#Strings",
				device("Chamber Strings", "query:Sounds#Strings:Chamber%20Strings", KindInstrument),
			),
		),
		folder("Drums", "query:Drums",
			device("Drum Rack", "query:Drums#Drum%20Rack", KindRack),
			device("Impulse", "query:Drums#Impulse", KindDrumMachine),
			folder("Acoustic", "query:Drums#Acoustic",
				device("Brooklyn Kit", "query:Drums#Acoustic:Brooklyn%20Kit", KindDrumMachine),
				device("Session Kit Full", "query:Drums#Acoustic:Session%20Kit%20Full", KindDrumMachine),
				device("Vintage Jazz Kit", "query:Drums#Acoustic:Vintage%20Jazz%20Kit", KindDrumMachine),
			),
			folder("Electronic", "query:Drums#Electronic",
				device("808 Core Kit", "query:Drums#Electronic:808%20Core%20Kit", KindDrumMachine),
				device("909 Core Kit", "query:Drums#Electronic:909%20Core%20Kit", KindDrumMachine),
				device("Trap Essentials Kit", "query:Drums#Electronic:Trap%20Essentials%20Kit", KindDrumMachine),
			),
			folder("Percussion", "query:Drums#Percussion",
				device("Latin Percussion Kit", "query:Drums#Percussion:Latin%20Percussion%20Kit", KindDrumMachine),
			),
		),
		folder("Audio Effects", "query:AudioFx",
			device("EQ Eight", "query:AudioFx#EQ%20Eight", KindAudioEffect),
			device("Compressor", "query:AudioFx#Compressor", KindAudioEffect),
			device("Glue Compressor", "query:AudioFx#Glue%20Compressor", KindAudioEffect),
			device("Auto Filter", "query:AudioFx#Auto%20Filter", KindAudioEffect),
			device("Reverb", "query:AudioFx#Reverb", KindAudioEffect),
			device("Delay", "query:AudioFx#Delay", KindAudioEffect),
			device("Saturator", "query:AudioFx#Saturator", KindAudioEffect),
			device("Limiter", "query:AudioFx#Limiter", KindAudioEffect),
			device("Audio Effect Rack", "query:AudioFx#Audio%20Effect%20Rack", KindRack),
		),
		folder("MIDI Effects", "query:MidiFx",
			device("Arpeggiator", "query:MidiFx#Arpeggiator", KindMIDIEffect),
			device("Chord", "query:MidiFx#Chord", KindMIDIEffect),
			device("Scale", "query:MidiFx#Scale", KindMIDIEffect),
			device("Note Length", "query:MidiFx#Note%20Length", KindMIDIEffect),
			device("Pitch", "query:MidiFx#Pitch", KindMIDIEffect),
			device("Random", "query:MidiFx#Random", KindMIDIEffect),
			device("Velocity", "query:MidiFx#Velocity", KindMIDIEffect),
		),
	}
}
