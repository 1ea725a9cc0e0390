package bank

// SeedAccounts returns the demo dataset used by the demo server mode, the
// smoke CLI and the tests. PINs are plain numbers: credential checking is
// exact equality and nothing more.
func SeedAccounts() []*Account {
	return []*Account{
		{
			Owner:        "Jonas Schmedtmann",
			Movements:    []float64{200, 450, -400, 3000, -650, -130, 70, 1300},
			InterestRate: 1.2,
			PIN:          1111,
		},
		{
			Owner:        "Jessica Davis",
			Movements:    []float64{5000, 3400, -150, -790, -3210, -1000, 8500, -30},
			InterestRate: 1.5,
			PIN:          2222,
		},
		{
			Owner:        "Steven Thomas Williams",
			Movements:    []float64{200, -200, 340, -300, -20, 50, 400, -460},
			InterestRate: 0.7,
			PIN:          3333,
		},
		{
			Owner:        "Sarah Smith",
			Movements:    []float64{430, 1000, 700, 50, 90},
			InterestRate: 1,
			PIN:          4444,
		},
	}
}
