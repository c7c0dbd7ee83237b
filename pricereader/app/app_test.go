package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/egaotan/solana-pricefeed/backend"
	"github.com/egaotan/solana-pricefeed/backend/localnet"
	"github.com/egaotan/solana-pricefeed/config"
	"github.com/egaotan/solana-pricefeed/pricefeed"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/egaotan/solana-pricefeed/store"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const answer = 72121164780

func payload(value uint64) func() []byte {
	return func() []byte {
		u, err := pricefeed.NewUint128(uint256.NewInt(value))
		if err != nil {
			panic(err)
		}
		data, err := pricefeed.Encode(&pricefeed.AggregatorLayout{Answer: u})
		if err != nil {
			panic(err)
		}
		return data
	}
}

type fixture struct {
	ledger *localnet.Ledger
	reader *PriceReader
	config *config.Config
	id     solana.PublicKey
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load(viper.New(), "", false)
	require.NoError(t, err)
	cfg.RpcUrl = "localnet"
	cfg.Commitment = "confirmed"
	cfg.ProgramPath = dir
	cfg.ConfirmTimeout = 1
	cfg.ConfirmInterval = 1
	return cfg
}

func newFixture(t *testing.T, cfg *config.Config, handler localnet.Handler) *fixture {
	t.Helper()
	programKey := solana.NewWallet().PrivateKey
	require.NoError(t, backend.SaveWallet(filepath.Join(cfg.ProgramPath, cfg.ProgramName+"-keypair.json"), programKey))
	ledger := localnet.NewLedger()
	if handler != nil {
		ledger.Deploy(programKey.PublicKey(), handler)
	}
	reader, err := NewPriceReader(context.Background(), cfg, ledger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if reader.store != nil {
			reader.store.Stop()
		}
	})
	return &fixture{ledger: ledger, reader: reader, config: cfg, id: programKey.PublicKey()}
}

func TestPriceReader_Run(t *testing.T) {
	f := newFixture(t, newConfig(t), localnet.NewWriterProgram(payload(answer)))

	report, err := f.reader.Run()
	require.NoError(t, err)
	assert.Equal(t, "72.121164780", report.String())
	assert.Equal(t, uint64(answer), report.Answer.Uint64())
	assert.Equal(t, f.id, report.Program)
	assert.Equal(t, program.SolUsdFeed, report.Feed)
	assert.False(t, report.Signature.IsZero())
	assert.Equal(t, 1, f.ledger.Executed(program.System))
	assert.Equal(t, 1, f.ledger.Executed(f.id))
	assert.Equal(t, 1, f.ledger.Airdrops())

	reading := f.ledger.Lookup(report.Account)
	require.NotNil(t, reading)
	assert.Equal(t, f.id, reading.Owner)
	assert.Len(t, reading.Data, pricefeed.SizeOf())

	// the reading account is reused
	_, err = f.reader.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, f.ledger.Executed(program.System))
	assert.Equal(t, 2, f.ledger.Executed(f.id))
}

func TestPriceReader_RunPersistedPayer(t *testing.T) {
	cfg := newConfig(t)
	cfg.Keypair = filepath.Join(t.TempDir(), "id.json")
	cfg.PersistKeypair = true
	f := newFixture(t, cfg, localnet.NewWriterProgram(payload(answer)))
	first, err := f.reader.Run()
	require.NoError(t, err)

	reader, err := NewPriceReader(context.Background(), cfg, f.ledger)
	require.NoError(t, err)
	second, err := reader.Run()
	require.NoError(t, err)
	assert.Equal(t, first.Account, second.Account)
	assert.Equal(t, 1, f.ledger.Executed(program.System))
	assert.Equal(t, 2, f.ledger.Executed(f.id))
}

func TestPriceReader_RunZeroAnswer(t *testing.T) {
	f := newFixture(t, newConfig(t), localnet.NewWriterProgram(payload(0)))
	report, err := f.reader.Run()
	require.NoError(t, err)
	assert.Equal(t, "no current price", report.String())
}

func TestPriceReader_RunProgramMissing(t *testing.T) {
	f := newFixture(t, newConfig(t), nil)
	_, err := f.reader.Run()
	assert.ErrorIs(t, err, program.ErrDeployment)
	assert.Equal(t, 0, f.ledger.Executed(program.System))
	assert.Equal(t, 0, f.ledger.Executed(f.id))
}

func TestPriceReader_RunMalformedPayload(t *testing.T) {
	f := newFixture(t, newConfig(t), func(programID solana.PublicKey, accounts []*backend.Account, data []byte) error {
		accounts[0].Data = make([]byte, 8)
		return nil
	})
	_, err := f.reader.Run()
	assert.ErrorIs(t, err, program.ErrSchema)
}

func TestPriceReader_RunUnreachable(t *testing.T) {
	f := newFixture(t, newConfig(t), localnet.NewWriterProgram(payload(answer)))
	f.ledger.FailVersion = assert.AnError
	_, err := f.reader.Run()
	assert.ErrorIs(t, err, program.ErrConnectivity)
}

func TestNewPriceReader_BadProgramId(t *testing.T) {
	cfg := newConfig(t)
	cfg.ProgramId = "not-a-key"
	_, err := NewPriceReader(context.Background(), cfg, localnet.NewLedger())
	assert.ErrorIs(t, err, program.ErrConfiguration)
}

func TestNewPriceReader_LongSeed(t *testing.T) {
	cfg := newConfig(t)
	cfg.Seed = "a-seed-that-is-longer-than-thirty-two-bytes"
	_, err := NewPriceReader(context.Background(), cfg, localnet.NewLedger())
	assert.ErrorIs(t, err, program.ErrConfiguration)
}

func TestPriceReader_Derive(t *testing.T) {
	cfg := newConfig(t)
	cfg.Keypair = filepath.Join(t.TempDir(), "id.json")
	key := solana.NewWallet().PrivateKey
	require.NoError(t, backend.SaveWallet(cfg.Keypair, key))
	f := newFixture(t, cfg, nil)

	payer, reading, err := f.reader.Derive()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), payer)
	want, err := solana.CreateWithSeed(key.PublicKey(), "hello", f.id)
	require.NoError(t, err)
	assert.Equal(t, want, reading)
}

func TestPriceReader_DeriveWithoutKeypair(t *testing.T) {
	cfg := newConfig(t)
	cfg.Keypair = filepath.Join(t.TempDir(), "missing.json")
	f := newFixture(t, cfg, nil)
	_, _, err := f.reader.Derive()
	assert.ErrorIs(t, err, program.ErrConfiguration)
}

func TestPriceReader_DeriveShortKeypair(t *testing.T) {
	cfg := newConfig(t)
	cfg.Keypair = filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(cfg.Keypair, []byte("[7,7]"), 0600))
	f := newFixture(t, cfg, nil)
	_, _, err := f.reader.Derive()
	assert.ErrorIs(t, err, program.ErrConfiguration)
}

func TestPriceReader_RunShortProgramKeypair(t *testing.T) {
	f := newFixture(t, newConfig(t), localnet.NewWriterProgram(payload(answer)))
	file := filepath.Join(f.config.ProgramPath, f.config.ProgramName+"-keypair.json")
	require.NoError(t, os.WriteFile(file, []byte("[1,2,3]"), 0600))
	_, err := f.reader.Run()
	assert.ErrorIs(t, err, program.ErrDeployment)
	assert.Equal(t, 0, f.ledger.Executed(program.System))
}

func TestPriceReader_Readings(t *testing.T) {
	cfg := newConfig(t)
	cfg.DBDriver = store.DriverSqlite
	cfg.DBUrl = filepath.Join(t.TempDir(), "readings.db")
	f := newFixture(t, cfg, localnet.NewWriterProgram(payload(answer)))
	router := f.reader.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/readings/latest", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	report, err := f.reader.Run()
	require.NoError(t, err)
	_, err = f.reader.Run()
	require.NoError(t, err)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/readings?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var readings ReadingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readings))
	require.Len(t, readings.Readings, 2)
	assert.Greater(t, readings.Readings[0].Id, readings.Readings[1].Id)
	assert.Equal(t, "72121164780", readings.Readings[0].Answer)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/readings/latest?account="+report.Account.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var latest store.PriceReading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	assert.Equal(t, "72.121164780", latest.Price)
	assert.Equal(t, readings.Readings[0].Id, latest.Id)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/readings?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pricereader_readings_total{result="ok"} 2`)
	assert.Contains(t, w.Body.String(), "pricereader_price 72.12116478")
}

func TestPriceReader_ServiceNeedsStore(t *testing.T) {
	f := newFixture(t, newConfig(t), nil)
	assert.ErrorIs(t, f.reader.Service(0), program.ErrConfiguration)
}
