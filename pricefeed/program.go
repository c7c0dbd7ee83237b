package pricefeed

import (
	"errors"
	"fmt"
	"github.com/egaotan/solana-pricefeed/backend"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/egaotan/solana-pricefeed/system"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"log"
	"os"
	"path/filepath"
)

const (
	DefaultName     = "chainlink_solana_demo"
	DefaultPath     = "./target/deploy"
	DefaultSeed     = "hello"
	DefaultDecimals = 9
)

type Options struct {
	// Id skips the program keypair when set.
	Id       solana.PublicKey
	Path     string
	Name     string
	Seed     string
	Feed     solana.PublicKey
	Decimals int32
}

// Program is the client side of the deployed price program. The program
// takes no instruction data: it reads the feed account and writes the
// answer into the reading account.
type Program struct {
	backend  *backend.Backend
	system   *system.Program
	log      *log.Logger
	opts     Options
	id       solana.PublicKey
	reading  solana.PublicKey
	decimals int32
}

type Report struct {
	Program   solana.PublicKey
	Account   solana.PublicKey
	Feed      solana.PublicKey
	Slot      uint64
	Answer    *uint256.Int
	Price     decimal.Decimal
	Decimals  int32
	Signature solana.Signature
}

func (r *Report) String() string {
	if r.Answer.IsZero() {
		return "no current price"
	}
	return r.Price.StringFixed(r.Decimals)
}

func NewProgram(be *backend.Backend, opts Options, logger *log.Logger) *Program {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Seed == "" {
		opts.Seed = DefaultSeed
	}
	if opts.Feed == (solana.PublicKey{}) {
		opts.Feed = program.SolUsdFeed
	}
	if opts.Decimals == 0 {
		opts.Decimals = DefaultDecimals
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Program{
		backend:  be,
		system:   system.NewProgram(),
		log:      logger,
		opts:     opts,
		decimals: opts.Decimals,
	}
}

func (p *Program) Name() string {
	return p.opts.Name
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

func (p *Program) Reading() solana.PublicKey {
	return p.reading
}

func (p *Program) Feed() solana.PublicKey {
	return p.opts.Feed
}

func (p *Program) KeypairPath() string {
	return filepath.Join(p.opts.Path, p.opts.Name+"-keypair.json")
}

func (p *Program) SoPath() string {
	return filepath.Join(p.opts.Path, p.opts.Name+".so")
}

func (p *Program) built() bool {
	_, err := os.Stat(p.SoPath())
	return err == nil
}

func (p *Program) notDeployed(reason string) error {
	if p.built() {
		return fmt.Errorf("%w: %s; program is built but needs to be deployed with `solana program deploy %s`",
			program.ErrDeployment, reason, p.SoPath())
	}
	return fmt.Errorf("%w: %s; program needs to be built and deployed, no binary at %s",
		program.ErrDeployment, reason, p.SoPath())
}

// LoadId resolves the program id from the program keypair.
func (p *Program) LoadId() (solana.PublicKey, error) {
	if p.opts.Id != (solana.PublicKey{}) {
		p.id = p.opts.Id
		return p.id, nil
	}
	key, err := backend.LoadWallet(p.KeypairPath())
	if err != nil {
		return solana.PublicKey{}, p.notDeployed(fmt.Sprintf("failed to read program keypair at %s: %s", p.KeypairPath(), err))
	}
	p.id = key.PublicKey()
	return p.id, nil
}

// CheckProgram resolves the program id and checks the program account is
// deployed.
func (p *Program) CheckProgram() error {
	id, err := p.LoadId()
	if err != nil {
		return err
	}
	account, err := p.backend.Account(id)
	if err != nil {
		return fmt.Errorf("%w: get program account %s: %w", program.ErrDeployment, id, err)
	}
	if account == nil {
		return p.notDeployed(fmt.Sprintf("program account %s does not exist", id))
	}
	if !account.Executable {
		return fmt.Errorf("%w: program account %s is not executable", program.ErrDeployment, id)
	}
	p.log.Printf("using program %s", id)
	return nil
}

// DeriveReading computes the reading account of payer. It does not touch
// the cluster.
func (p *Program) DeriveReading(payer solana.PublicKey) (solana.PublicKey, error) {
	if p.id == (solana.PublicKey{}) {
		return solana.PublicKey{}, fmt.Errorf("%w: program id is not resolved", program.ErrDeployment)
	}
	reading, err := system.CreateWithSeed(payer, p.opts.Seed, p.id)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: derive reading account: %w", program.ErrConfiguration, err)
	}
	p.reading = reading
	return reading, nil
}

// EnsureReading creates the reading account of payer unless it exists.
// It reports whether a creation transaction was sent.
func (p *Program) EnsureReading(payer solana.PublicKey) (bool, error) {
	reading, err := p.DeriveReading(payer)
	if err != nil {
		return false, err
	}
	exist, err := p.backend.HasAccount(reading)
	if err != nil {
		return false, fmt.Errorf("%w: get reading account %s: %w", program.ErrDeployment, reading, err)
	}
	if exist {
		return false, nil
	}
	space := uint64(AggregatorLayoutSize)
	lamports, err := p.backend.GetMinimumBalanceForRentExemption(space)
	if err != nil {
		return false, fmt.Errorf("%w: get rent exemption for %d bytes: %w", program.ErrFunding, space, err)
	}
	p.log.Printf("creating account %s to read from", reading)
	in, _, err := p.system.InstructionCreateAccountWithSeed(payer, payer, p.opts.Seed, lamports, space, p.id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", program.ErrSubmission, err)
	}
	if _, err := p.backend.Commit([]solana.Instruction{in}); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Program) InstructionGetPrice() (solana.Instruction, error) {
	if p.reading == (solana.PublicKey{}) {
		return nil, errors.New("reading account is not derived")
	}
	return program.NewInstruction(p.id, nil,
		program.Writable(p.reading),
		program.Readonly(p.opts.Feed),
	), nil
}

// GetPrice asks the program to copy the feed answer into the reading
// account.
func (p *Program) GetPrice() (solana.Signature, error) {
	in, err := p.InstructionGetPrice()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %w", program.ErrSubmission, err)
	}
	p.log.Printf("getting data from %s", p.reading)
	return p.backend.Commit([]solana.Instruction{in})
}

// ReportPrice decodes the reading account.
func (p *Program) ReportPrice() (*Report, error) {
	if p.reading == (solana.PublicKey{}) {
		return nil, fmt.Errorf("%w: reading account is not derived", program.ErrNotFound)
	}
	account, err := p.backend.Account(p.reading)
	if err != nil {
		return nil, fmt.Errorf("%w: get reading account %s: %w", program.ErrConnectivity, p.reading, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: cannot find the aggregator account %s", program.ErrNotFound, p.reading)
	}
	if account.Owner != p.id {
		return nil, fmt.Errorf("%w: account %s is owned by %s, expected %s", program.ErrSchema, p.reading, account.Owner, p.id)
	}
	layout, err := Decode(account.Data)
	if err != nil {
		return nil, err
	}
	answer := layout.Answer.Int()
	report := &Report{
		Program:  p.id,
		Account:  p.reading,
		Feed:     p.opts.Feed,
		Slot:     account.Height,
		Answer:   answer,
		Price:    Scale(answer, p.decimals),
		Decimals: p.decimals,
	}
	p.log.Printf("current price of %s is: %s (answer %s)", p.opts.Feed, report, answer.Dec())
	return report, nil
}
