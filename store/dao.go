package store

import (
	"fmt"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMysql  = "mysql"
	DriverSqlite = "sqlite"
)

type Dao struct {
	db *gorm.DB
}

// NewDao opens url with driver: a mysql dsn, or a sqlite file path.
func NewDao(driver, url string, debug bool) (*Dao, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMysql:
		dialector = mysql.Open(url)
	case DriverSqlite, "":
		dialector = sqlite.Open(url)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	gormLogger := logger.Default.LogMode(logger.Silent)
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&PriceReading{}); err != nil {
		return nil, err
	}
	return &Dao{db: db}, nil
}

func (dao *Dao) SavePriceReading(reading *PriceReading) error {
	return dao.db.Create(reading).Error
}

func (dao *Dao) SelectPriceReadings(account string, limit int) ([]*PriceReading, error) {
	readings := make([]*PriceReading, 0)
	query := dao.db.Order("id desc").Limit(limit)
	if account != "" {
		query = query.Where("account = ?", account)
	}
	res := query.Find(&readings)
	return readings, res.Error
}

func (dao *Dao) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
