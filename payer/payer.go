package payer

import (
	"errors"
	"fmt"
	"github.com/egaotan/solana-pricefeed/backend"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"log"
	"os"
)

const (
	// signature fees reserved on top of rent, enough for retried sends
	DefaultFeeMultiplier = 100
)

// Payer resolves the fee paying identity once and keeps it funded.
type Payer struct {
	backend    *backend.Backend
	log        *log.Logger
	keypair    string
	persist    bool
	multiplier uint64
	key        solana.PrivateKey
	fees       uint64
}

// NewPayer loads the identity from keypair when it exists. A generated
// identity is written back to keypair when persist is set.
func NewPayer(be *backend.Backend, keypair string, persist bool, multiplier uint64, logger *log.Logger) *Payer {
	if multiplier == 0 {
		multiplier = DefaultFeeMultiplier
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Payer{
		backend:    be,
		log:        logger,
		keypair:    keypair,
		persist:    persist,
		multiplier: multiplier,
	}
}

func (p *Payer) PublicKey() solana.PublicKey {
	if p.key == nil {
		return solana.PublicKey{}
	}
	return p.key.PublicKey()
}

// FeeBudget is the rent exemption of an account of size space plus
// multiplier signature fees.
func (p *Payer) FeeBudget(space uint64) (uint64, error) {
	rent, err := p.backend.GetMinimumBalanceForRentExemption(space)
	if err != nil {
		return 0, fmt.Errorf("%w: get rent exemption for %d bytes: %w", program.ErrFunding, space, err)
	}
	lamportsPerSignature, err := p.backend.LamportsPerSignature()
	if err != nil {
		return 0, fmt.Errorf("%w: get fee parameters: %w", program.ErrFunding, err)
	}
	return rent + lamportsPerSignature*p.multiplier, nil
}

// Establish returns a payer holding at least the fee budget for an account
// of size space. The identity is resolved on the first call only.
func (p *Payer) Establish(space uint64) (solana.PrivateKey, error) {
	if p.key == nil {
		fees, err := p.FeeBudget(space)
		if err != nil {
			return nil, err
		}
		key, err := p.load()
		if errors.Is(err, os.ErrNotExist) {
			key, err = p.newAccountWithLamports(fees)
		}
		if err != nil {
			return nil, err
		}
		p.fees = fees
		p.key = key
		p.backend.SetPlayer(p.backend.ImportWallet(key))
	}
	pub := p.key.PublicKey()
	lamports, err := p.backend.Balance(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: get balance of %s: %w", program.ErrFunding, pub, err)
	}
	if lamports < p.fees {
		if _, err := p.backend.Airdrop(pub, p.fees-lamports); err != nil {
			return nil, err
		}
		lamports, err = p.backend.Balance(pub)
		if err != nil {
			return nil, fmt.Errorf("%w: get balance of %s: %w", program.ErrFunding, pub, err)
		}
		if lamports < p.fees {
			return nil, fmt.Errorf("%w: balance of %s is %d lamports after airdrop, need %d", program.ErrFunding, pub, lamports, p.fees)
		}
	}
	p.log.Printf("using account %s containing %s SOL to pay for fees", pub, Sol(lamports))
	return p.key, nil
}

func (p *Payer) load() (solana.PrivateKey, error) {
	if p.keypair == "" {
		return nil, os.ErrNotExist
	}
	if _, err := os.Stat(p.keypair); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.log.Printf("no keypair at %s", p.keypair)
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("%w: stat keypair %s: %w", program.ErrConfiguration, p.keypair, err)
	}
	key, err := backend.LoadWallet(p.keypair)
	if err != nil {
		return nil, fmt.Errorf("%w: read keypair %s: %w", program.ErrConfiguration, p.keypair, err)
	}
	return key, nil
}

func (p *Payer) newAccountWithLamports(lamports uint64) (solana.PrivateKey, error) {
	wallet := solana.NewWallet()
	p.log.Printf("generated payer %s", wallet.PublicKey())
	if p.persist && p.keypair != "" {
		if err := backend.SaveWallet(p.keypair, wallet.PrivateKey); err != nil {
			return nil, fmt.Errorf("%w: save keypair %s: %w", program.ErrConfiguration, p.keypair, err)
		}
	}
	if _, err := p.backend.Airdrop(wallet.PublicKey(), lamports); err != nil {
		return nil, err
	}
	return wallet.PrivateKey, nil
}

// Sol formats lamports in SOL.
func Sol(lamports uint64) string {
	return decimal.NewFromInt(int64(lamports)).Div(decimal.NewFromInt(program.LamportsPerSol)).String()
}
