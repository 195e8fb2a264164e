package netmesh_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feta-zk/feta/internal/netmesh"
	"github.com/feta-zk/feta/internal/netmesh/nettest"
)

// TestMeshHandshakeAndFramedIO stands up a 2-player mesh (N=1) over real
// TLS-wrapped TCP loopback connections and round-trips a message with a
// verified signature.
func TestMeshHandshakeAndFramedIO(t *testing.T) {
	dir := t.TempDir()
	n := 1
	ports, err := nettest.GenerateFixture(dir, n)
	require.NoError(t, err)
	cfgText := nettest.ConfigText(dir, ports)

	var wg sync.WaitGroup
	wg.Add(2)
	var ni0, ni1 *netmesh.NetworkInfo
	var err0, err1 error

	go func() {
		defer wg.Done()
		cfg, e := netmesh.LoadConfig(strings.NewReader(cfgText), n)
		if e != nil {
			err0 = e
			return
		}
		ni0, err0 = netmesh.New(0, n, cfg)
	}()
	go func() {
		defer wg.Done()
		cfg, e := netmesh.LoadConfig(strings.NewReader(cfgText), n)
		if e != nil {
			err1 = e
			return
		}
		ni1, err1 = netmesh.New(1, n, cfg)
	}()
	wg.Wait()

	require.NoError(t, err0)
	require.NoError(t, err1)
	require.NotNil(t, ni0)
	require.NotNil(t, ni1)

	msg := []byte("hello from player 0")
	require.NoError(t, ni0.Write(1, msg))
	buf := make([]byte, len(msg))
	require.NoError(t, ni1.Read(0, buf))
	require.Equal(t, msg, buf)

	sig, err := ni0.Sign(msg)
	require.NoError(t, err)
	require.True(t, ni1.Verify(0, msg, sig))
	require.False(t, ni1.Verify(0, []byte("tampered"), sig))

	require.NoError(t, ni0.CloseConnection(1))
	require.NoError(t, ni1.CloseConnection(0))
}
