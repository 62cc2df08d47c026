package entity

// Portfolio is the single collection of stocks owned by a user.
type Portfolio struct {
	ID     uint
	UserID uint
	Stocks []Stock
}

// Contains reports whether the portfolio holds the given symbol.
func (p Portfolio) Contains(symbol string) bool {
	for _, s := range p.Stocks {
		if s.Symbol == symbol {
			return true
		}
	}
	return false
}
