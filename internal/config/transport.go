package config

// TransportConfig selects how the agent talks to its owner.
type TransportConfig struct {
	Console   bool   `yaml:"console"`
	Websocket string `yaml:"websocket"` // listen address, empty disables
	NotesDir  string `yaml:"notes_dir"` // file drop-box sensor, empty disables
}

func defaultTransport() TransportConfig {
	return TransportConfig{
		Console:   true,
		Websocket: "",
		NotesDir:  "",
	}
}
