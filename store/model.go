package store

type PriceReading struct {
	Id        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Program   string `gorm:"type:varchar(48);not null;index" json:"program"`
	Account   string `gorm:"type:varchar(48);not null;index" json:"account"`
	Feed      string `gorm:"type:varchar(48);not null" json:"feed"`
	Answer    string `gorm:"type:varchar(40);not null" json:"answer"`
	Price     string `gorm:"type:varchar(64);not null" json:"price"`
	Slot      uint64 `gorm:"not null" json:"slot"`
	Signature string `gorm:"type:varchar(120);not null" json:"signature"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}
