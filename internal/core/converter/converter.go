// Package converter maps values between units of one category.
//
// Unit symbols match case-insensitively and results always carry the
// canonical symbol from the table ("kn" resolves to "kN"). Aliases such as
// "inch" or "kelvin" resolve the same way.
package converter

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

// Converter is stateless after construction and safe for concurrent use.
type Converter struct {
	index map[domain.Category]map[string]domain.Unit
}

func New() *Converter {
	index := make(map[domain.Category]map[string]domain.Unit, len(domain.AllCategories))
	for _, category := range domain.AllCategories {
		units := tableFor(category)
		byKey := make(map[string]domain.Unit, len(units))
		for _, u := range units {
			byKey[fold(u.Symbol)] = u
			for _, alias := range u.Aliases {
				byKey[fold(alias)] = u
			}
		}
		index[category] = byKey
	}
	return &Converter{index: index}
}

// Convert maps value from one unit to another within category.
func (c *Converter) Convert(value float64, category, fromUnit, toUnit string) (domain.ConversionResult, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return domain.ConversionResult{}, err
	}
	return c.ConvertRequest(domain.ConversionRequest{
		Value:    value,
		Category: cat,
		FromUnit: fromUnit,
		ToUnit:   toUnit,
	})
}

func (c *Converter) ConvertRequest(req domain.ConversionRequest) (domain.ConversionResult, error) {
	units, ok := c.index[req.Category]
	if !ok {
		return domain.ConversionResult{}, domain.WrapError(domain.ErrUnknownCategory, "convert", fmt.Errorf("%s is not a category", domain.Quote(string(req.Category))))
	}
	from, err := lookup(units, req.Category, req.FromUnit)
	if err != nil {
		return domain.ConversionResult{}, err
	}
	to, err := lookup(units, req.Category, req.ToUnit)
	if err != nil {
		return domain.ConversionResult{}, err
	}

	var out float64
	if req.Category.Linear() {
		if from.Symbol == to.Symbol {
			out = req.Value
		} else {
			out = req.Value * (from.Scale / to.Scale)
		}
	} else {
		out = convertTemperature(req.Value, from.Symbol, to.Symbol)
	}
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return domain.ConversionResult{}, domain.WrapError(domain.ErrInvalidNumericInput, "convert",
			fmt.Errorf("%w: %g %s in %s", domain.ErrResultOutOfRange, req.Value, from.Symbol, to.Symbol))
	}
	return domain.ConversionResult{Category: req.Category, Value: out, Unit: to.Symbol}, nil
}

// Categories returns the fixed category set in menu order.
func (c *Converter) Categories() []domain.Category {
	return slices.Clone(domain.AllCategories)
}

// Units returns the category table in display order.
func (c *Converter) Units(category domain.Category) ([]domain.Unit, error) {
	if _, ok := c.index[category]; !ok {
		return nil, domain.WrapError(domain.ErrUnknownCategory, "units", fmt.Errorf("%s is not a category", domain.Quote(string(category))))
	}
	return slices.Clone(tableFor(category)), nil
}

func lookup(units map[string]domain.Unit, category domain.Category, symbol string) (domain.Unit, error) {
	u, ok := units[fold(symbol)]
	if !ok {
		return domain.Unit{}, domain.WrapError(domain.ErrUnknownUnit, "convert", fmt.Errorf("%s is not a %s unit", domain.Quote(symbol), category))
	}
	return u, nil
}

func tableFor(category domain.Category) []domain.Unit {
	if category == domain.CategoryTemperature {
		return temperatureUnits
	}
	return linearTables[category]
}

func fold(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}
