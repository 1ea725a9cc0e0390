package bank

import "sort"

// Pure movement statistics. Nothing here mutates an account; the balance
// in particular is recomputed from the full history on every call rather
// than cached, so it can never drift from the movements.

// Balance is the sum of all movements.
func Balance(acc *Account) float64 {
	var sum float64
	for _, mov := range acc.Movements {
		sum += mov
	}
	return sum
}

// TotalDeposits is the sum of all positive movements.
func TotalDeposits(acc *Account) float64 {
	var sum float64
	for _, mov := range acc.Movements {
		if mov > 0 {
			sum += mov
		}
	}
	return sum
}

// TotalWithdrawals is the sum of all negative movements. The result is
// <= 0; display layers show its absolute value.
func TotalWithdrawals(acc *Account) float64 {
	var sum float64
	for _, mov := range acc.Movements {
		if mov < 0 {
			sum += mov
		}
	}
	return sum
}

// QualifyingInterest computes per-deposit interest at the given percent
// rate and sums it, discarding any single computed amount <= 1. The cutoff
// is a business rule: a small deposit earns no interest at all, not a
// reduced amount.
func QualifyingInterest(acc *Account, rate float64) float64 {
	var sum float64
	for _, mov := range acc.Movements {
		if mov <= 0 {
			continue
		}
		interest := mov * rate / 100
		if interest > 1 {
			sum += interest
		}
	}
	return sum
}

// MovementsView returns a copy of the movement history, value-ascending
// when sorted is true. The stored sequence keeps its insertion order
// either way.
func MovementsView(acc *Account, sorted bool) []float64 {
	out := make([]float64, len(acc.Movements))
	copy(out, acc.Movements)
	if sorted {
		sort.Float64s(out)
	}
	return out
}
