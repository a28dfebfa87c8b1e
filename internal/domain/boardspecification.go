package domain

// BoardSpecification Model: hardware catalog entry a custom-board order
// is built against
type BoardSpecification struct {
	ID           uint   `gorm:"primaryKey"` // Primary key
	Model        string `gorm:"not null"`   // Board model name
	Processor    string ``                  // Processor description
	Memory       string ``                  // Memory description
	Storage      string ``                  // Storage description
	Connectivity string ``                  // Connectivity options
	IOPorts      string ``                  // I/O port listing
	Dimensions   string ``                  // Physical dimensions
	Language     string ``                  // Primary programming language
	Architecture string ``                  // CPU architecture
}
