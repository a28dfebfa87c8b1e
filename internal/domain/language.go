package domain

// Language Model: catalog entry pairing a language with one of its
// frameworks, served to the generation frontend
type Language struct {
	ID        uint   `gorm:"primaryKey"`           // Primary key
	Language  string `gorm:"not null"`             // Language name
	Framework string `gorm:"not null"`             // Framework name
	Extension string `gorm:"not null"`             // Source file extension, dot included
	CreatedAt int64  `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
