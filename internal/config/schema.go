// Package config loads editorbridge configuration from JSON with
// environment-variable overrides.
package config

// Config is the top-level configuration.
type Config struct {
	Bridge    BridgeConfig    `json:"bridge"`
	Upload    UploadConfig    `json:"upload"`
	Transport TransportConfig `json:"transport"`
}

// BridgeConfig tunes the message bridge on both sides.
type BridgeConfig struct {
	// Prefix is the reserved envelope token. Both sides must agree on it
	// out of band.
	Prefix string `json:"prefix"`
	// ReadySignalKey names the host-injected value the engine polls for
	// before constructing the editor.
	ReadySignalKey string `json:"readySignalKey"`
	// ReadyRetries and ReadyIntervalMS bound the engine's readiness poll
	// (retries * interval is the construction ceiling).
	ReadyRetries    int `json:"readyRetries"`
	ReadyIntervalMS int `json:"readyIntervalMs"`
	// HeightThrottleMS is the trailing-edge debounce for height reports.
	HeightThrottleMS int `json:"heightThrottleMs"`
	// HeightFallbackMS is the period of the standalone height notification.
	HeightFallbackMS int `json:"heightFallbackMs"`
	// FocusAckTimeoutMS bounds the wait for FOCUS_ACK before falling back
	// to the legacy fixed-delay behavior.
	FocusAckTimeoutMS int `json:"focusAckTimeoutMs"`
}

// UploadConfig tunes the chunking coordinator.
type UploadConfig struct {
	MaxFileSize       int64    `json:"maxFileSize"`
	AllowedExtensions []string `json:"allowedExtensions"`
	// MaxChunkSize is the server-advertised ceiling for one base64 chunk,
	// already accounting for inflation plus padding.
	MaxChunkSize      int  `json:"maxChunkSize"`
	ChunkingSupported bool `json:"chunkingSupported"`
	// RemoveDelayMS defers local record removal after abort/delete so UI
	// animation can finish.
	RemoveDelayMS int `json:"removeDelayMs"`
}

// TransportConfig tunes the WebSocket endpoint of the serve command.
type TransportConfig struct {
	ListenAddr string `json:"listenAddr"`
	// Path is the endpoint the embedded document connects back to.
	Path string `json:"path"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Prefix:            "editorbridge::",
			ReadySignalKey:    "initialFormat",
			ReadyRetries:      50,
			ReadyIntervalMS:   500,
			HeightThrottleMS:  500,
			HeightFallbackMS:  2000,
			FocusAckTimeoutMS: 750,
		},
		Upload: UploadConfig{
			MaxFileSize:       8 << 20,
			AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "pdf", "txt", "zip"},
			MaxChunkSize:      512 << 10,
			ChunkingSupported: true,
			RemoveDelayMS:     1000,
		},
		Transport: TransportConfig{
			ListenAddr: "127.0.0.1:9521",
			Path:       "/bridge",
		},
	}
}
