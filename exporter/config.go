package exporter

// Config configures the frame-record sinker.
type Config struct {
	Enabled bool `config:"enabled"`

	// Console writes newline-delimited JSON records to stdout. Mutually
	// exclusive with a non-empty Filename; Console wins if both are set.
	Console bool `config:"console"`

	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"`    // MB, before rotation
	MaxBackups int    `config:"maxBackups"` // old files to retain
	MaxAge     int    `config:"maxAge"`     // days
}

// ApplyDefaults fills in zero-valued fields with the sinker's defaults.
func (c *Config) ApplyDefaults() {
	if !c.Console && c.Filename == "" {
		c.Filename = "frames.log"
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 7
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 10
	}
}
