package session

import "github.com/gvspd/gvspd/common"

// Config describes one camera session's static wiring, as loaded from
// the process config file (confengine) or set directly by a caller
// embedding this package.
type Config struct {
	// HostIP is the local address the session's UDP socket binds to.
	HostIP string `config:"hostIP"`

	// CameraIP is the destination address for the firewall-traversal
	// datagram sent on start_receive.
	CameraIP string `config:"cameraIP"`

	// PayloadSize is the expected total payload bytes per frame.
	PayloadSize int `config:"payloadSize"`

	// PacketSize is the caller's configured packet MTU, including the
	// 36-byte combined IP+UDP+GVSP header overhead.
	PacketSize int `config:"packetSize"`

	Verbose  bool `config:"verbose"`
	Warnings bool `config:"warnings"`
}

// ApplyDefaults fills in a zero PacketSize with the standard Ethernet MTU.
func (c *Config) ApplyDefaults() {
	if c.PacketSize == 0 {
		c.PacketSize = 1500
	}
}

// ConfigFromOptions builds a Config from a loosely-typed common.Options
// bag, for embedders (host-language bindings) that construct a session
// from their own config objects instead of a YAML document. Absent keys
// leave the corresponding field at its zero value.
func ConfigFromOptions(opts common.Options) (Config, error) {
	var cfg Config
	var err error

	if _, ok := opts["hostIP"]; ok {
		if cfg.HostIP, err = opts.GetString("hostIP"); err != nil {
			return Config{}, err
		}
	}
	if _, ok := opts["cameraIP"]; ok {
		if cfg.CameraIP, err = opts.GetString("cameraIP"); err != nil {
			return Config{}, err
		}
	}
	if _, ok := opts["payloadSize"]; ok {
		if cfg.PayloadSize, err = opts.GetInt("payloadSize"); err != nil {
			return Config{}, err
		}
	}
	if _, ok := opts["packetSize"]; ok {
		if cfg.PacketSize, err = opts.GetInt("packetSize"); err != nil {
			return Config{}, err
		}
	}
	if _, ok := opts["verbose"]; ok {
		if cfg.Verbose, err = opts.GetBool("verbose"); err != nil {
			return Config{}, err
		}
	}
	if _, ok := opts["warnings"]; ok {
		if cfg.Warnings, err = opts.GetBool("warnings"); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
