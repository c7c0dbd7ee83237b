package store

import (
	"github.com/egaotan/solana-pricefeed/pricefeed"
	"log"
)

const DefaultLimit = 20

type Store struct {
	logger *log.Logger
	dao    *Dao
}

func NewStore(driver, url string, logger *log.Logger) (*Store, error) {
	dao, err := NewDao(driver, url, false)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{logger: logger, dao: dao}, nil
}

func (s *Store) Stop() {
	if err := s.dao.Close(); err != nil {
		s.logger.Printf("close db err: %s", err.Error())
	}
}

func (s *Store) StorePriceReading(report *pricefeed.Report) (*PriceReading, error) {
	reading := &PriceReading{
		Program:   report.Program.String(),
		Account:   report.Account.String(),
		Feed:      report.Feed.String(),
		Answer:    report.Answer.Dec(),
		Price:     report.Price.StringFixed(report.Decimals),
		Slot:      report.Slot,
		Signature: report.Signature.String(),
	}
	if err := s.dao.SavePriceReading(reading); err != nil {
		return nil, err
	}
	s.logger.Printf("stored price reading %d of %s", reading.Id, reading.Account)
	return reading, nil
}

func (s *Store) GetPriceReadings(account string, limit int) ([]*PriceReading, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.dao.SelectPriceReadings(account, limit)
}
