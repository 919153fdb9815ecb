package sequence

// DocumentNumber is the per-day counter row backing Generator.
type DocumentNumber struct {
	Prefix string `gorm:"primaryKey;type:text"`
	Day    string `gorm:"primaryKey;type:text"`
	Seq    int64  `gorm:"not null;default:0"`
}

// TableName sets the database table name.
func (DocumentNumber) TableName() string { return "document_numbers" }
