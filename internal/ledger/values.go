package ledger

import (
	"fmt"
	"math"
	"math/big"
)

// Uint64 decodes an unsigned ABI integer. Clients hand back uint256 values
// as *big.Int; simulators and tests tend to use native integers.
func Uint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case Identifier:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative integer %d", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative integer %d", n)
		}
		return uint64(n), nil
	case *big.Int:
		if n == nil {
			return 0, fmt.Errorf("nil integer")
		}
		if n.Sign() < 0 {
			return 0, fmt.Errorf("negative integer %s", n)
		}
		if !n.IsUint64() {
			return 0, fmt.Errorf("integer %s overflows uint64", n)
		}
		return n.Uint64(), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// Int64 decodes an ABI integer that must fit int64 (timestamps).
func Int64(v any) (int64, error) {
	u, err := Uint64(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("integer %d overflows int64", u)
	}
	return int64(u), nil
}

// String decodes an ABI string.
func String(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}
