package system

import (
	"encoding/binary"
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/gagliardetto/solana-go"
)

const (
	InstructionCreateAccount         = 0
	InstructionCreateAccountWithSeed = 3
)

type Program struct {
	id solana.PublicKey
}

func NewProgram() *Program {
	return &Program{
		id: program.System,
	}
}

func (p *Program) Name() string {
	return "system"
}

func (p *Program) Id() solana.PublicKey {
	return p.id
}

// CreateWithSeed derives the address owned by owner for base and seed. It
// is a pure function of its inputs.
func CreateWithSeed(base solana.PublicKey, seed string, owner solana.PublicKey) (solana.PublicKey, error) {
	if len(seed) > program.MaxSeedLength {
		return solana.PublicKey{}, fmt.Errorf("seed %q is longer than %d bytes", seed, program.MaxSeedLength)
	}
	return solana.CreateWithSeed(base, seed, owner)
}

// InstructionCreateAccountWithSeed creates the account derived from base and
// seed, funded by from and assigned to owner.
func (p *Program) InstructionCreateAccountWithSeed(from solana.PublicKey, base solana.PublicKey, seed string,
	lamports uint64, space uint64, owner solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	newKey, err := CreateWithSeed(base, seed, owner)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	data := make([]byte, 4+32+8+len(seed)+8+8+32)
	offset := 0
	binary.LittleEndian.PutUint32(data[offset:], InstructionCreateAccountWithSeed)
	offset += 4
	copy(data[offset:], base.Bytes())
	offset += 32
	binary.LittleEndian.PutUint64(data[offset:], uint64(len(seed)))
	offset += 8
	copy(data[offset:], seed)
	offset += len(seed)
	binary.LittleEndian.PutUint64(data[offset:], lamports)
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], space)
	offset += 8
	copy(data[offset:], owner.Bytes())

	accounts := []*solana.AccountMeta{
		program.Signer(from),
		program.Writable(newKey),
	}
	if base != from {
		accounts = append(accounts, program.ReadonlySigner(base))
	}
	return program.NewInstruction(p.id, data, accounts...), newKey, nil
}

type CreateAccountWithSeed struct {
	Base     solana.PublicKey
	Seed     string
	Lamports uint64
	Space    uint64
	Owner    solana.PublicKey
}

// ParseCreateAccountWithSeed is the inverse of the packing done by
// InstructionCreateAccountWithSeed.
func ParseCreateAccountWithSeed(data []byte) (*CreateAccountWithSeed, error) {
	if len(data) < 4+32+8 {
		return nil, fmt.Errorf("create account with seed data too short: %d", len(data))
	}
	if kind := binary.LittleEndian.Uint32(data); kind != InstructionCreateAccountWithSeed {
		return nil, fmt.Errorf("unexpected system instruction: %d", kind)
	}
	in := &CreateAccountWithSeed{}
	offset := 4
	copy(in.Base[:], data[offset:offset+32])
	offset += 32
	seedLen := binary.LittleEndian.Uint64(data[offset:])
	offset += 8
	if seedLen > program.MaxSeedLength || uint64(len(data)) != uint64(offset)+seedLen+8+8+32 {
		return nil, fmt.Errorf("create account with seed data size is not valid: %d", len(data))
	}
	in.Seed = string(data[offset : offset+int(seedLen)])
	offset += int(seedLen)
	in.Lamports = binary.LittleEndian.Uint64(data[offset:])
	offset += 8
	in.Space = binary.LittleEndian.Uint64(data[offset:])
	offset += 8
	copy(in.Owner[:], data[offset:offset+32])
	return in, nil
}
