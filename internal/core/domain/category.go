package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one of the fixed unit families a value can be converted in.
type Category string

const (
	CategoryLength      Category = "length"
	CategoryMass        Category = "mass"
	CategoryForce       Category = "force"
	CategoryPressure    Category = "pressure"
	CategoryVolume      Category = "volume"
	CategoryEnergy      Category = "energy"
	CategoryPower       Category = "power"
	CategoryTemperature Category = "temperature"
)

// AllCategories lists every category in menu order.
var AllCategories = []Category{
	CategoryLength,
	CategoryMass,
	CategoryForce,
	CategoryPressure,
	CategoryVolume,
	CategoryEnergy,
	CategoryPower,
	CategoryTemperature,
}

// ParseCategory matches s against the fixed set ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllCategories {
		if string(c) == needle {
			return c, nil
		}
	}
	return "", WrapError(ErrUnknownCategory, "parse category", fmt.Errorf("%s is not a category", Quote(s)))
}

// Label is the display name, e.g. "Length".
// A Caser keeps state between calls, so each call builds its own.
func (c Category) Label() string {
	return cases.Title(language.English).String(string(c))
}

// Linear reports whether the category converts by a pure ratio.
func (c Category) Linear() bool {
	return c != CategoryTemperature
}

func (c Category) String() string {
	return string(c)
}
