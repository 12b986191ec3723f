// Package pricing calculates instant quotes from model volume and the
// selected material and process. Pure arithmetic, no state.
package pricing

import "math"

// Per-cm³ material costs in USD.
var materialCosts = map[string]float64{
	"pla":   0.05,
	"abs":   0.07,
	"petg":  0.08,
	"nylon": 0.12,
	"resin": 0.15,
}

// Process cost multipliers applied to the material cost.
var processMultipliers = map[string]float64{
	"fdm":  1.0,
	"sla":  1.5,
	"dmls": 3.0,
	"mjf":  2.0,
}

const (
	defaultMaterialCost      = 0.1
	defaultProcessMultiplier = 1.0
	setupFee                 = 10.0
	handlingFee              = 5.0
)

// Quote is one price breakdown.
type Quote struct {
	MaterialCost float64 `json:"material_cost"`
	ProcessCost  float64 `json:"process_cost"`
	SetupFee     float64 `json:"setup_fee"`
	HandlingFee  float64 `json:"handling_fee"`
	Subtotal     float64 `json:"subtotal"`
	Total        float64 `json:"total"`
	Quantity     int     `json:"quantity"`
	Currency     string  `json:"currency"`
}

// Calculate prices a print job. volumeCM3 is the part volume in cm³.
// Unknown materials and processes fall back to conservative defaults.
// Quantities below one are treated as one.
func Calculate(volumeCM3 float64, material, process string, quantity int) Quote {
	if quantity < 1 {
		quantity = 1
	}

	costPerCM3, ok := materialCosts[material]
	if !ok {
		costPerCM3 = defaultMaterialCost
	}

	multiplier, ok := processMultipliers[process]
	if !ok {
		multiplier = defaultProcessMultiplier
	}

	baseCost := volumeCM3 * costPerCM3
	processCost := baseCost * multiplier
	subtotal := processCost * float64(quantity)

	return Quote{
		MaterialCost: round2(baseCost),
		ProcessCost:  round2(processCost),
		SetupFee:     setupFee,
		HandlingFee:  handlingFee,
		Subtotal:     round2(subtotal),
		Total:        round2(subtotal + setupFee + handlingFee),
		Quantity:     quantity,
		Currency:     "USD",
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
