package backend

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"github.com/gagliardetto/solana-go"
	"os"
	"path/filepath"
)

type Wallet struct {
	pubkey solana.PublicKey
	prikey solana.PrivateKey
}

func (backend *Backend) ImportWallet(pri solana.PrivateKey) solana.PublicKey {
	pub := pri.PublicKey()
	for _, wallet := range backend.wallets {
		if wallet.pubkey == pub {
			return pub
		}
	}
	backend.wallets = append(backend.wallets, &Wallet{
		pubkey: pub,
		prikey: pri,
	})
	return pub
}

func (backend *Backend) getWallet(key solana.PublicKey) *solana.PrivateKey {
	for _, wallet := range backend.wallets {
		if wallet.pubkey == key {
			return &wallet.prikey
		}
	}
	return nil
}

func (backend *Backend) SetPlayer(player solana.PublicKey) {
	backend.player = player
}

func (backend *Backend) Player() solana.PublicKey {
	return backend.player
}

// SaveWallet writes the key in the solana-keygen json format.
func SaveWallet(file string, pri solana.PrivateKey) error {
	values := make([]int, len(pri))
	for i, b := range pri {
		values[i] = int(b)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("create keypair dir: %w", err)
	}
	return os.WriteFile(file, data, 0600)
}

// LoadWallet reads a solana-keygen json file holding a 64 byte keypair.
func LoadWallet(file string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(file)
	if err != nil {
		return nil, err
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair %s holds %d bytes, expected %d", file, len(key), ed25519.PrivateKeySize)
	}
	return key, nil
}
