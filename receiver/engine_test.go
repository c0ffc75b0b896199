package receiver

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvspd/gvspd/gvsp"
	"github.com/gvspd/gvspd/metrics"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []gvsp.Header
}

func (f *fakeDispatcher) Dispatch(h gvsp.Header, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, h)
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func buildPacket(status, blockID uint16, extended bool, format gvsp.Format, packetID uint32, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	b[0] = byte(status >> 8)
	b[1] = byte(status)
	b[2] = byte(blockID >> 8)
	b[3] = byte(blockID)
	flags := byte(format)
	if extended {
		flags |= 0x80
	}
	b[4] = flags
	b[5] = byte(packetID >> 16)
	b[6] = byte(packetID >> 8)
	b[7] = byte(packetID)
	copy(b[8:], payload)
	return b
}

func newLoopbackPair(t *testing.T) (server *net.UDPConn, client *net.UDPConn) {
	t.Helper()
	srv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	cli, err := net.DialUDP("udp", nil, srv.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)

	return srv, cli
}

func TestEngineDispatchesValidPackets(t *testing.T) {
	srv, cli := newLoopbackPair(t)
	defer cli.Close()

	disp := &fakeDispatcher{}
	e := NewEngine(srv, disp, nil)
	e.Start()
	defer e.Stop()

	pkt := buildPacket(0, 1, false, gvsp.FormatData, 1, []byte{1, 2, 3, 4})
	_, err := cli.Write(pkt)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return disp.count() == 1 }, time.Second, 5*time.Millisecond)

	h := disp.calls[0]
	assert.Equal(t, uint16(1), h.BlockID)
	assert.Equal(t, gvsp.FormatData, h.Format)
	assert.Equal(t, uint32(1), h.PacketID)
}

func TestEngineDropsInvalidHeader(t *testing.T) {
	srv, cli := newLoopbackPair(t)
	defer cli.Close()

	disp := &fakeDispatcher{}
	e := NewEngine(srv, disp, nil)
	e.Start()
	defer e.Stop()

	bad := buildPacket(1 /* nonzero status */, 1, false, gvsp.FormatData, 1, []byte{1, 2})
	_, err := cli.Write(bad)
	require.NoError(t, err)

	ok := buildPacket(0, 2, false, gvsp.FormatTrailer, 0, nil)
	_, err = cli.Write(ok)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return disp.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint16(2), disp.calls[0].BlockID)
}

func TestEngineDropsShortDatagram(t *testing.T) {
	srv, cli := newLoopbackPair(t)
	defer cli.Close()

	disp := &fakeDispatcher{}
	e := NewEngine(srv, disp, nil)
	e.Start()
	defer e.Stop()

	_, err := cli.Write([]byte{1, 2, 3})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, disp.count())
}

func TestEngineDropsInvalidHeaderWarnsAndCountsDropReason(t *testing.T) {
	srv, cli := newLoopbackPair(t)
	defer cli.Close()

	disp := &fakeDispatcher{}
	e := NewEngine(srv, disp, nil)
	e.SetWarnings(true)
	e.Start()
	defer e.Stop()

	before := testutil.ToFloat64(metrics.WarningsEmitted)
	badHeaderBefore := testutil.ToFloat64(metrics.FramesDropped.WithLabelValues(string(metrics.DropBadHeader)))
	extendedBefore := testutil.ToFloat64(metrics.FramesDropped.WithLabelValues(string(metrics.DropExtendedID)))

	badStatus := buildPacket(1 /* nonzero status */, 1, false, gvsp.FormatData, 1, []byte{1, 2})
	_, err := cli.Write(badStatus)
	require.NoError(t, err)

	extended := buildPacket(0, 1, true /* extended */, gvsp.FormatData, 1, []byte{1, 2})
	_, err = cli.Write(extended)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.FramesDropped.WithLabelValues(string(metrics.DropExtendedID))) > extendedBefore
	}, time.Second, 5*time.Millisecond)

	assert.Greater(t, testutil.ToFloat64(metrics.WarningsEmitted), before)
	assert.Greater(t, testutil.ToFloat64(metrics.FramesDropped.WithLabelValues(string(metrics.DropBadHeader))), badHeaderBefore)
	assert.Equal(t, 0, disp.count())
}

func TestEngineWarningsGateLogOnlyNotMetrics(t *testing.T) {
	srv, cli := newLoopbackPair(t)
	defer cli.Close()

	disp := &fakeDispatcher{}
	e := NewEngine(srv, disp, nil) // warnings left at its zero-value default: off
	e.Start()
	defer e.Stop()

	before := testutil.ToFloat64(metrics.FramesDropped.WithLabelValues(string(metrics.DropBadHeader)))

	bad := buildPacket(1, 1, false, gvsp.FormatData, 1, []byte{1, 2})
	_, err := cli.Write(bad)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.FramesDropped.WithLabelValues(string(metrics.DropBadHeader))) > before
	}, time.Second, 5*time.Millisecond)
}

func TestEngineFatalHandlerOnClose(t *testing.T) {
	srv, cli := newLoopbackPair(t)
	defer cli.Close()

	fatalCh := make(chan error, 1)
	disp := &fakeDispatcher{}
	e := NewEngine(srv, disp, func(err error) { fatalCh <- err })
	e.Start()

	srv.Close()

	select {
	case err := <-fatalCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("fatal handler was never invoked after socket close")
	}

	e.Stop()
}
