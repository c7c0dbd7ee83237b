package config

import (
	"errors"
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/spf13/viper"
	"os"
	"strings"
)

var (
	DefaultRpcUrl = "http://localhost:8899"
	ConfigFile    = "./config.json"
	BackendLog    = "backend"
	PayerLog      = "payer"
	ProgramLog    = "pricefeed"
	StoreLog      = "store"
	ApiLog        = "api"
	NetworkLog    = "network"
)

type Node struct {
	Rpc    string `json:"rpc" mapstructure:"rpc"`
	Usable bool   `json:"usable" mapstructure:"usable"`
}

type Config struct {
	RpcUrl          string  `json:"rpc_url" mapstructure:"rpc_url"`
	Nodes           []*Node `json:"nodes" mapstructure:"nodes"`
	DetectNodes     bool    `json:"detect_nodes" mapstructure:"detect_nodes"`
	Commitment      string  `json:"commitment" mapstructure:"commitment"`
	Keypair         string  `json:"keypair" mapstructure:"keypair"`
	PersistKeypair  bool    `json:"persist_keypair" mapstructure:"persist_keypair"`
	SolanaConfig    string  `json:"solana_config" mapstructure:"solana_config"`
	ProgramId       string  `json:"program_id" mapstructure:"program_id"`
	ProgramPath     string  `json:"program_path" mapstructure:"program_path"`
	ProgramName     string  `json:"program_name" mapstructure:"program_name"`
	Seed            string  `json:"seed" mapstructure:"seed"`
	Feed            string  `json:"feed" mapstructure:"feed"`
	FeeMultiplier   uint64  `json:"fee_multiplier" mapstructure:"fee_multiplier"`
	Decimals        int32   `json:"decimals" mapstructure:"decimals"`
	ConfirmTimeout  int     `json:"confirm_timeout" mapstructure:"confirm_timeout"`
	ConfirmInterval int     `json:"confirm_interval" mapstructure:"confirm_interval"`
	LogPath         string  `json:"log_path" mapstructure:"log_path"`
	DBDriver        string  `json:"db_driver" mapstructure:"db_driver"`
	DBUrl           string  `json:"db_url" mapstructure:"db_url"`
	DingUrl         string  `json:"ding_url" mapstructure:"ding_url"`
	Listen          string  `json:"listen" mapstructure:"listen"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", "")
	v.SetDefault("nodes", []*Node{})
	v.SetDefault("detect_nodes", false)
	v.SetDefault("commitment", "")
	v.SetDefault("keypair", "")
	v.SetDefault("persist_keypair", false)
	v.SetDefault("solana_config", DefaultSolanaConfigPath())
	v.SetDefault("program_id", "")
	v.SetDefault("program_path", "./target/deploy")
	v.SetDefault("program_name", "chainlink_solana_demo")
	v.SetDefault("seed", "hello")
	v.SetDefault("feed", program.SolUsdFeed.String())
	v.SetDefault("fee_multiplier", 100)
	v.SetDefault("decimals", 9)
	v.SetDefault("confirm_timeout", 60)
	v.SetDefault("confirm_interval", 500)
	v.SetDefault("log_path", "")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_url", "")
	v.SetDefault("ding_url", "")
	v.SetDefault("listen", "0.0.0.0:8089")
}

// Load reads file into a Config. Environment variables prefixed with
// PRICEREADER_ override the file, and RPC_URL overrides rpc_url. A missing
// file is only an error when required is set.
func Load(v *viper.Viper, file string, required bool) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix("PRICEREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("rpc_url", "PRICEREADER_RPC_URL", "RPC_URL"); err != nil {
		return nil, err
	}
	if file != "" {
		_, err := os.Stat(file)
		switch {
		case err == nil:
			v.SetConfigFile(file)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("%w: read config %s: %w", program.ErrConfiguration, file, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("%w: config %s: %w", program.ErrConfiguration, file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %w", program.ErrConfiguration, err)
	}
	return &cfg, nil
}

// UsableNodes lists the rpc urls of the usable nodes, rpc_url first.
func (c *Config) UsableNodes() []string {
	urls := make([]string, 0, len(c.Nodes)+1)
	if c.RpcUrl != "" {
		urls = append(urls, c.RpcUrl)
	}
	for _, node := range c.Nodes {
		if node.Usable && node.Rpc != "" && node.Rpc != c.RpcUrl {
			urls = append(urls, node.Rpc)
		}
	}
	return urls
}

// Resolve fills the rpc url, keypair and commitment from the solana cli
// config when they are not set, falling back to the local validator.
func (c *Config) Resolve() error {
	cli, err := LoadSolanaCli(c.SolanaConfig)
	if err != nil {
		return err
	}
	if cli != nil {
		if c.RpcUrl == "" {
			c.RpcUrl = cli.JsonRpcUrl
		}
		if c.Keypair == "" {
			c.Keypair = cli.KeypairPath
		}
		if c.Commitment == "" {
			c.Commitment = cli.Commitment
		}
	}
	if c.RpcUrl == "" {
		c.RpcUrl = DefaultRpcUrl
	}
	if c.Commitment == "" {
		c.Commitment = "confirmed"
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: unknown commitment %q", program.ErrConfiguration, c.Commitment)
	}
	return nil
}
