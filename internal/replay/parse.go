package replay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityCore/internal/fixedpoint"
	"liquidityCore/internal/model"
)

// ParseAddress converts a hex string into common.Address.
func ParseAddress(field, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%w: invalid %s address: %q", ErrMalformedOperation, field, input)
	}
	return common.HexToAddress(input), nil
}

// ParseAddresses converts string addresses into common.Address, skipping
// blanks.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		addr, err := ParseAddress("list", input)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

func parseAmount(field, input string) (*uint256.Int, error) {
	amount, err := fixedpoint.ParseAmount(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedOperation, field, err)
	}
	return amount, nil
}

// parseLimit reads an optional bound, using fallback when it is absent.
func parseLimit(input string, fallback *uint256.Int) (*uint256.Int, error) {
	if strings.TrimSpace(input) == "" {
		return fallback, nil
	}
	return parseAmount("limit", input)
}

func decodeOperation(line []byte) (model.Operation, error) {
	var op model.Operation
	if err := json.Unmarshal(line, &op); err != nil {
		return model.Operation{}, fmt.Errorf("%w: %v", ErrMalformedOperation, err)
	}
	if op.Op == "" {
		return model.Operation{}, fmt.Errorf("%w: missing op", ErrMalformedOperation)
	}
	return op, nil
}
