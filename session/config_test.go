package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvspd/gvspd/common"
	"github.com/gvspd/gvspd/session"
)

func TestConfigFromOptions(t *testing.T) {
	opts := common.NewOptions()
	opts.Merge("hostIP", "127.0.0.1")
	opts.Merge("cameraIP", "192.168.1.10")
	opts.Merge("payloadSize", 1024)
	opts.Merge("packetSize", "1500") // cast handles string->int
	opts.Merge("verbose", true)

	cfg, err := session.ConfigFromOptions(opts)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.HostIP)
	assert.Equal(t, "192.168.1.10", cfg.CameraIP)
	assert.Equal(t, 1024, cfg.PayloadSize)
	assert.Equal(t, 1500, cfg.PacketSize)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.Warnings)
}

func TestConfigFromOptionsEmpty(t *testing.T) {
	cfg, err := session.ConfigFromOptions(common.NewOptions())
	require.NoError(t, err)
	assert.Equal(t, session.Config{}, cfg)
}

func TestConfigFromOptionsInvalidType(t *testing.T) {
	opts := common.NewOptions()
	opts.Merge("payloadSize", "not-a-number")

	_, err := session.ConfigFromOptions(opts)
	assert.Error(t, err)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := session.Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, 1500, cfg.PacketSize)

	cfg = session.Config{PacketSize: 9000}
	cfg.ApplyDefaults()
	assert.Equal(t, 9000, cfg.PacketSize)
}
