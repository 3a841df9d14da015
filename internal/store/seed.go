package store

import (
	_ "embed"
	"encoding/json"

	"quickcart/internal/models"
)

//go:embed seed.json
var seedDocument []byte

// Seed returns a fresh copy of the first-run state: one demo customer and the
// launch catalog of ten products per category.
func Seed() *models.State {
	var state models.State
	if err := json.Unmarshal(seedDocument, &state); err != nil {
		panic("store: embedded seed is invalid: " + err.Error())
	}
	return &state
}
