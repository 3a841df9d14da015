package service

import (
	"math"

	"quickcart/internal/models"
)

// mergeCartItems folds repeated products into one line, keeping first-seen
// order. A merged quantity that would overflow is rejected.
func mergeCartItems(items []models.CartItem) ([]models.CartItem, error) {
	merged := make([]models.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt-item.Quantity {
				return nil, models.NewError(models.KindInvalidInput, "quantity for %s is too large", item.ProductID)
			}
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// resolveLines snapshots the current price and name of every cart line
func resolveLines(state *models.State, items []models.CartItem) ([]models.LineItem, error) {
	lines := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		idx := state.FindProduct(item.ProductID)
		if idx < 0 {
			return nil, models.NewError(models.KindProductNotFound, "product %s", item.ProductID)
		}
		p := state.Products[idx]
		lines = append(lines, models.LineItem{
			ProductID: p.ID,
			Quantity:  item.Quantity,
			Price:     p.Price,
			Name:      p.Name,
		})
	}
	return lines, nil
}

// reserveStock verifies every line against available stock before touching
// any of it, then decrements. Either all lines are taken or none.
func reserveStock(state *models.State, items []models.CartItem) ([]models.LineItem, error) {
	lines, err := resolveLines(state, items)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, models.NewError(models.KindInvalidInput, "quantity for %s must be at least 1", item.ProductID)
		}
		p := state.Products[state.FindProduct(item.ProductID)]
		if item.Quantity > p.Stock {
			return nil, models.NewError(models.KindInsufficientStock,
				"product %s: requested=%d available=%d", p.ID, item.Quantity, p.Stock)
		}
	}

	for _, item := range items {
		state.Products[state.FindProduct(item.ProductID)].Stock -= item.Quantity
	}

	return lines, nil
}
