package utils

import (
	"fmt"
	"math"
)

// MaxSelectionElements limits a single selection to 1 billion elements.
const MaxSelectionElements = 1_000_000_000

// CheckMultiplyOverflow checks if multiplying two uint64 values would
// overflow. Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no
// overflow occurs. Returns 0 and an error if overflow would occur.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// CountElements calculates the total element count of a selection, the
// product of the per-dimension counts, with overflow checking.
func CountElements(count []uint64) (uint64, error) {
	if len(count) == 0 {
		return 0, fmt.Errorf("empty selection count")
	}

	total := uint64(1)
	for i, c := range count {
		if c == 0 {
			return 0, fmt.Errorf("zero count at dimension %d", i)
		}
		if err := CheckMultiplyOverflow(total, c); err != nil {
			return 0, fmt.Errorf("element overflow at dimension %d: %w", i, err)
		}
		total *= c
	}
	if total > MaxSelectionElements {
		return 0, fmt.Errorf("selection of %d elements exceeds maximum %d", total, MaxSelectionElements)
	}
	return total, nil
}
