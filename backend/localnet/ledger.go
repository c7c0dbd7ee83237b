// Package localnet is an in-memory cluster implementing backend.Node. It
// executes system CreateAccountWithSeed and any program registered with
// Deploy, and counts every transaction it lands per program.
package localnet

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/egaotan/solana-pricefeed/backend"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/egaotan/solana-pricefeed/system"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	Version              = "1.9.9"
	LamportsPerSignature = 5000
	// rent exemption of the runtime: two years of 3480 lamports per byte,
	// counting 128 bytes of account overhead
	lamportsPerByteYear = 3480
	exemptionYears      = 2
	accountOverhead     = 128
)

// Handler executes one instruction of a deployed program.
type Handler func(programID solana.PublicKey, accounts []*backend.Account, data []byte) error

type Ledger struct {
	mu       sync.Mutex
	slot     uint64
	accounts map[solana.PublicKey]*backend.Account
	statuses map[solana.Signature]*backend.SignatureStatus
	handlers map[solana.PublicKey]Handler
	executed map[solana.PublicKey]int
	airdrops int

	FailVersion error
	FailBalance error
	FailRent    error
	FailAccount error
	FailAirdrop error
	FailSend    error
	// transactions land with an error status instead of executing
	FailExecution bool
	// signatures stay unknown forever
	NeverConfirm bool
	// airdrops land this many lamports short
	AirdropShortfall uint64
}

func NewLedger() *Ledger {
	l := &Ledger{
		slot:     1,
		accounts: make(map[solana.PublicKey]*backend.Account),
		statuses: make(map[solana.Signature]*backend.SignatureStatus),
		handlers: make(map[solana.PublicKey]Handler),
		executed: make(map[solana.PublicKey]int),
	}
	l.handlers[program.System] = l.system
	return l
}

func RentExemption(size uint64) uint64 {
	return (accountOverhead + size) * lamportsPerByteYear * exemptionYears
}

// Deploy places an executable account at id whose instructions run handler.
func (l *Ledger) Deploy(id solana.PublicKey, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[id] = &backend.Account{
		PubKey:     id,
		Lamports:   RentExemption(36),
		Owner:      solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111"),
		Executable: true,
		Data:       make([]byte, 36),
	}
	l.handlers[id] = handler
}

func (l *Ledger) SetAccount(account *backend.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *account
	cp.Data = append([]byte(nil), account.Data...)
	l.accounts[account.PubKey] = &cp
}

func (l *Ledger) Fund(pubkey solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(pubkey, lamports)
}

// Executed is the number of instructions landed for a program.
func (l *Ledger) Executed(programID solana.PublicKey) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.executed[programID]
}

func (l *Ledger) Airdrops() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.airdrops
}

func (l *Ledger) Lookup(pubkey solana.PublicKey) *backend.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	account, ok := l.accounts[pubkey]
	if !ok {
		return nil
	}
	cp := *account
	cp.Data = append([]byte(nil), account.Data...)
	return &cp
}

func (l *Ledger) GetVersion(ctx context.Context) (string, error) {
	if l.FailVersion != nil {
		return "", l.FailVersion
	}
	return Version, nil
}

func (l *Ledger) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	if l.FailBalance != nil {
		return 0, l.FailBalance
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if account, ok := l.accounts[pubkey]; ok {
		return account.Lamports, nil
	}
	return 0, nil
}

func (l *Ledger) GetRecentBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*backend.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var hash solana.Hash
	hash[0] = byte(l.slot)
	hash[31] = 1
	return &backend.Blockhash{Hash: hash, LamportsPerSignature: LamportsPerSignature}, nil
}

func (l *Ledger) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64, commitment rpc.CommitmentType) (uint64, error) {
	if l.FailRent != nil {
		return 0, l.FailRent
	}
	return RentExemption(size), nil
}

func (l *Ledger) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (*backend.Account, error) {
	if l.FailAccount != nil {
		return nil, l.FailAccount
	}
	account := l.Lookup(pubkey)
	if account != nil {
		l.mu.Lock()
		account.Height = l.slot
		l.mu.Unlock()
	}
	return account, nil
}

func (l *Ledger) RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error) {
	if l.FailAirdrop != nil {
		return solana.Signature{}, l.FailAirdrop
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.airdrops++
	if lamports > l.AirdropShortfall {
		l.credit(pubkey, lamports-l.AirdropShortfall)
	}
	return l.land(newSignature(), nil), nil
}

func (l *Ledger) SendTransaction(ctx context.Context, trx *solana.Transaction, commitment rpc.CommitmentType) (solana.Signature, error) {
	if l.FailSend != nil {
		return solana.Signature{}, l.FailSend
	}
	if len(trx.Signatures) == 0 || trx.Signatures[0].IsZero() {
		return solana.Signature{}, fmt.Errorf("transaction is not signed")
	}
	signature := trx.Signatures[0]
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailExecution {
		return l.land(signature, "InstructionError"), nil
	}
	msg := trx.Message
	payer := msg.AccountKeys[0]
	fee := uint64(len(trx.Signatures)) * LamportsPerSignature
	if err := l.debit(payer, fee); err != nil {
		return solana.Signature{}, err
	}
	for _, ci := range msg.Instructions {
		programID := msg.AccountKeys[ci.ProgramIDIndex]
		handler, ok := l.handlers[programID]
		if !ok {
			return solana.Signature{}, fmt.Errorf("program %s is not deployed", programID)
		}
		accounts := make([]*backend.Account, 0, len(ci.Accounts))
		for _, index := range ci.Accounts {
			key := msg.AccountKeys[index]
			account, ok := l.accounts[key]
			if !ok {
				account = &backend.Account{PubKey: key, Owner: program.System}
			}
			accounts = append(accounts, account)
		}
		if err := handler(programID, accounts, ci.Data); err != nil {
			return solana.Signature{}, fmt.Errorf("instruction to %s failed: %w", programID, err)
		}
		for _, account := range accounts {
			if account.Lamports > 0 || len(account.Data) > 0 {
				l.accounts[account.PubKey] = account
			}
		}
		l.executed[programID]++
	}
	return l.land(signature, nil), nil
}

func (l *Ledger) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*backend.SignatureStatus, error) {
	if l.NeverConfirm {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	status, ok := l.statuses[signature]
	if !ok {
		return nil, nil
	}
	cp := *status
	return &cp, nil
}

func (l *Ledger) system(programID solana.PublicKey, accounts []*backend.Account, data []byte) error {
	in, err := system.ParseCreateAccountWithSeed(data)
	if err != nil {
		return err
	}
	if len(accounts) < 2 {
		return fmt.Errorf("create account with seed needs 2 accounts, got %d", len(accounts))
	}
	from, to := accounts[0], accounts[1]
	want, err := system.CreateWithSeed(in.Base, in.Seed, in.Owner)
	if err != nil {
		return err
	}
	if to.PubKey != want {
		return fmt.Errorf("address %s does not match derived %s", to.PubKey, want)
	}
	if to.Lamports > 0 || len(to.Data) > 0 {
		return fmt.Errorf("account %s already in use", to.PubKey)
	}
	if in.Lamports < RentExemption(in.Space) {
		return fmt.Errorf("insufficient funds for rent")
	}
	if from.Lamports < in.Lamports {
		return fmt.Errorf("insufficient lamports %d, need %d", from.Lamports, in.Lamports)
	}
	from.Lamports -= in.Lamports
	to.Lamports = in.Lamports
	to.Owner = in.Owner
	to.Data = make([]byte, in.Space)
	return nil
}

// NewWriterProgram returns a handler that copies payload into the first
// instruction account, which must be owned by the program and sized to fit.
func NewWriterProgram(payload func() []byte) Handler {
	return func(programID solana.PublicKey, accounts []*backend.Account, data []byte) error {
		if len(accounts) == 0 {
			return fmt.Errorf("not enough account keys")
		}
		target := accounts[0]
		if target.Owner != programID {
			return fmt.Errorf("account %s is not owned by %s", target.PubKey, programID)
		}
		value := payload()
		if len(target.Data) != len(value) {
			return fmt.Errorf("account data size %d, payload %d", len(target.Data), len(value))
		}
		copy(target.Data, value)
		return nil
	}
}

func (l *Ledger) credit(pubkey solana.PublicKey, lamports uint64) {
	account, ok := l.accounts[pubkey]
	if !ok {
		account = &backend.Account{PubKey: pubkey, Owner: program.System}
		l.accounts[pubkey] = account
	}
	account.Lamports += lamports
}

func (l *Ledger) debit(pubkey solana.PublicKey, lamports uint64) error {
	account, ok := l.accounts[pubkey]
	if !ok || account.Lamports < lamports {
		return fmt.Errorf("attempt to debit an account but found no record of a prior credit")
	}
	account.Lamports -= lamports
	return nil
}

func (l *Ledger) land(signature solana.Signature, err interface{}) solana.Signature {
	l.slot++
	l.statuses[signature] = &backend.SignatureStatus{
		Slot:         l.slot,
		Err:          err,
		Confirmation: rpc.CommitmentConfirmed,
	}
	return signature
}

func newSignature() solana.Signature {
	var signature solana.Signature
	if _, err := rand.Read(signature[:]); err != nil {
		panic(err)
	}
	return signature
}
