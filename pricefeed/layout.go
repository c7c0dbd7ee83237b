package pricefeed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Uint128 is a borsh u128: the low word is serialized first.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// AggregatorLayout is the data region of the reading account. The program
// stores the latest feed answer in it.
type AggregatorLayout struct {
	Answer Uint128
}

// AggregatorLayoutSize is the encoded length of a default AggregatorLayout,
// the space allocated for the reading account.
var AggregatorLayoutSize = measure()

func measure() int {
	data, err := Encode(&AggregatorLayout{})
	if err != nil {
		panic(err)
	}
	return len(data)
}

func SizeOf() int {
	return AggregatorLayoutSize
}

func Encode(layout *AggregatorLayout) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, layout); err != nil {
		return nil, fmt.Errorf("%w: encode aggregator: %w", program.ErrSchema, err)
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) (*AggregatorLayout, error) {
	if len(data) != AggregatorLayoutSize {
		return nil, fmt.Errorf("%w: aggregator data size is not valid, expected: %d, actual: %d",
			program.ErrSchema, AggregatorLayoutSize, len(data))
	}
	layout := &AggregatorLayout{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, layout); err != nil {
		return nil, fmt.Errorf("%w: aggregator data is not valid: %w", program.ErrSchema, err)
	}
	return layout, nil
}

func NewUint128(v *uint256.Int) (Uint128, error) {
	if v.BitLen() > 128 {
		return Uint128{}, fmt.Errorf("%w: %s does not fit in 128 bits", program.ErrSchema, v.Dec())
	}
	hi := new(uint256.Int).Rsh(v, 64)
	return Uint128{Lo: v.Uint64(), Hi: hi.Uint64()}, nil
}

func (u Uint128) Int() *uint256.Int {
	v := uint256.NewInt(u.Hi)
	v.Lsh(v, 64)
	return v.Or(v, uint256.NewInt(u.Lo))
}

func (u Uint128) String() string {
	return u.Int().Dec()
}

// Scale reads the answer as a fixed point number with decimals places.
func Scale(answer *uint256.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(answer.ToBig(), -decimals)
}
