package config

import (
	"errors"
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
)

// SolanaCli is the part of the solana cli config.yml the client reads.
type SolanaCli struct {
	JsonRpcUrl   string `yaml:"json_rpc_url"`
	WebsocketUrl string `yaml:"websocket_url"`
	KeypairPath  string `yaml:"keypair_path"`
	Commitment   string `yaml:"commitment"`
}

func DefaultSolanaConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "cli", "config.yml")
}

// LoadSolanaCli returns nil without error when there is no config at path.
func LoadSolanaCli(path string) (*SolanaCli, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read solana config %s: %w", program.ErrConfiguration, path, err)
	}
	cli := &SolanaCli{}
	if err := yaml.Unmarshal(data, cli); err != nil {
		return nil, fmt.Errorf("%w: parse solana config %s: %w", program.ErrConfiguration, path, err)
	}
	cli.KeypairPath = expandHome(cli.KeypairPath)
	return cli, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
