package entities

// DefaultStoreID is the admin store; its option labels are the fallback for every store view
const DefaultStoreID int64 = 0

// Store represents a store view
type Store struct {
	ID       int64
	Code     string
	Name     string
	IsActive bool
}

// IsDefault reports whether s is the admin store
func (s *Store) IsDefault() bool {
	return s.ID == DefaultStoreID
}
