package domain

// Company is a directory entry owned by the external company registry.
// It is never mutated by this service.
type Company struct {
	ID      int
	IBANs   []string
	Name    string
	Address string
}
