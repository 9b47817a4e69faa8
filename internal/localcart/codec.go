package localcart

import (
	"encoding/json"
	"fmt"

	"beauty-kart/internal/model"
)

// decode turns a persisted payload into a LocalCart. The persisted total is
// never trusted: it is recomputed from the decoded lines.
func decode(data []byte) (model.LocalCart, error) {
	var cart model.LocalCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.LocalCart{}, fmt.Errorf("%w: %v", model.ErrStorageCorruption, err)
	}

	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}

	seen := make(map[string]struct{}, len(cart.Lines))
	for i, line := range cart.Lines {
		if err := validateLine(line); err != nil {
			return model.LocalCart{}, fmt.Errorf("%w: line %d: %v", model.ErrStorageCorruption, i, err)
		}
		if _, dup := seen[line.ProductID]; dup {
			return model.LocalCart{}, fmt.Errorf("%w: line %d: duplicate product %s",
				model.ErrStorageCorruption, i, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}

	cart.Recompute()
	return cart, nil
}

func encode(cart model.LocalCart) ([]byte, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("failed to encode local cart: %w", err)
	}
	return data, nil
}

func validateLine(line model.CartLine) error {
	if line.ProductID == "" {
		return fmt.Errorf("product id is required")
	}
	if line.Quantity < 1 {
		return fmt.Errorf("quantity %d is below 1", line.Quantity)
	}
	if line.UnitPrice.IsNegative() {
		return fmt.Errorf("price %s is negative", line.UnitPrice)
	}
	return nil
}
