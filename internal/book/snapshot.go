package book

// Collection names shared by the local cache and the remote sync transport.
const (
	CollectionCustomers    = "customers"
	CollectionProducts     = "products"
	CollectionSafes        = "safes"
	CollectionTransactions = "transactions"
)

// Snapshot is the persisted state layout: the four top-level collections,
// each an ordered sequence.
type Snapshot struct {
	Customers    []Customer    `json:"customers"`
	Products     []Product     `json:"products"`
	Safes        []Safe        `json:"safes"`
	Transactions []Transaction `json:"transactions"`
}

// MaxID returns the largest record id across all collections. Used to seed
// id sequences after restoring a snapshot.
func (s Snapshot) MaxID() int64 {
	var max int64
	for _, c := range s.Customers {
		if c.ID > max {
			max = c.ID
		}
	}
	for _, p := range s.Products {
		if p.ID > max {
			max = p.ID
		}
	}
	for _, sf := range s.Safes {
		if sf.ID > max {
			max = sf.ID
		}
	}
	for _, t := range s.Transactions {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}
