package networkdetect

import (
	"errors"
	"fmt"
	"github.com/go-ping/ping"
	"log"
	"net"
	"net/url"
	"strings"
	"time"
)

var (
	PingCount   = 3
	PingTimeout = 3 * time.Second
)

// Probe returns the average round trip time to host.
type Probe func(host string) (time.Duration, error)

func PingProbe(host string) (time.Duration, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, err
	}
	pinger.Count = PingCount
	pinger.Timeout = PingTimeout
	if err := pinger.Run(); err != nil { // blocks until finished
		return 0, err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("no reply from %s", host)
	}
	return stats.AvgRtt, nil
}

// Host extracts the host of an rpc url such as http://127.0.0.1:8899 or
// a bare host:port.
func Host(peer string) (string, error) {
	if !strings.Contains(peer, "://") {
		host := peer
		if h, _, err := net.SplitHostPort(peer); err == nil {
			host = h
		}
		if host == "" {
			return "", fmt.Errorf("no host in %q", peer)
		}
		return host, nil
	}
	u, err := url.Parse(peer)
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("no host in %q", peer)
	}
	return host, nil
}

type NetworkDetector struct {
	probe  Probe
	logger *log.Logger
}

func NewNetworkDetector(probe Probe, logger *log.Logger) *NetworkDetector {
	if probe == nil {
		probe = PingProbe
	}
	if logger == nil {
		logger = log.Default()
	}
	return &NetworkDetector{
		probe:  probe,
		logger: logger,
	}
}

// DetectPeers picks the peer with the lowest round trip time. Peers that
// cannot be probed are skipped.
func (nd *NetworkDetector) DetectPeers(peers []string) (string, time.Duration, error) {
	if len(peers) == 0 {
		return "", 0, errors.New("no peers to detect")
	}
	if len(peers) == 1 {
		return peers[0], 0, nil
	}
	best := -1
	var minttl time.Duration
	for i, peer := range peers {
		host, err := Host(peer)
		if err != nil {
			nd.logger.Printf("peer %s: %s", peer, err.Error())
			continue
		}
		ttl, err := nd.probe(host)
		if err != nil {
			nd.logger.Printf("ping %s err: %s", host, err.Error())
			continue
		}
		nd.logger.Printf("peer: %s, ttl: %d ms", peer, ttl.Milliseconds())
		if best < 0 || ttl < minttl {
			minttl = ttl
			best = i
		}
	}
	if best < 0 {
		return peers[0], 0, fmt.Errorf("none of %d peers answered", len(peers))
	}
	return peers[best], minttl, nil
}
