package networkdetect

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8899":         "localhost",
		"https://api.devnet.solana.com": "api.devnet.solana.com",
		"ws://10.0.0.3:8900":            "10.0.0.3",
		"http://[::1]:8899":             "::1",
		"10.0.0.4:8899":                 "10.0.0.4",
		"rpc.local":                     "rpc.local",
	}
	for peer, want := range cases {
		host, err := Host(peer)
		require.NoError(t, err, peer)
		assert.Equal(t, want, host, peer)
	}
	_, err := Host("http://")
	assert.Error(t, err)
	_, err = Host("https://:8899")
	assert.Error(t, err)
	_, err = Host(":8899")
	assert.Error(t, err)
}

func TestDetectPeers(t *testing.T) {
	rtt := map[string]time.Duration{
		"10.0.0.1": 30 * time.Millisecond,
		"10.0.0.2": 5 * time.Millisecond,
	}
	probe := func(host string) (time.Duration, error) {
		if d, ok := rtt[host]; ok {
			return d, nil
		}
		return 0, errors.New("unreachable")
	}
	nd := NewNetworkDetector(probe, log.New(io.Discard, "", 0))

	peer, ttl, err := nd.DetectPeers([]string{"http://10.0.0.1:8899", "http://10.0.0.9:8899", "http://10.0.0.2:8899"})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8899", peer)
	assert.Equal(t, 5*time.Millisecond, ttl)

	peer, _, err = nd.DetectPeers([]string{"http://10.0.0.8:8899", "http://10.0.0.9:8899"})
	assert.Error(t, err)
	assert.Equal(t, "http://10.0.0.8:8899", peer)

	peer, _, err = nd.DetectPeers([]string{"http://only:8899"})
	require.NoError(t, err)
	assert.Equal(t, "http://only:8899", peer)

	_, _, err = nd.DetectPeers(nil)
	assert.Error(t, err)
}
