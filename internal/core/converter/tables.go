package converter

import "github.com/kirillkom/unit-converter/internal/core/domain"

// linearTables holds "1 unit = Scale x base unit" per category, in display
// order. The base unit of each table has Scale 1.
var linearTables = map[domain.Category][]domain.Unit{
	domain.CategoryLength: {
		{Symbol: "m", Name: "metre", Scale: 1},
		{Symbol: "cm", Name: "centimetre", Scale: 0.01},
		{Symbol: "mm", Name: "millimetre", Scale: 0.001},
		{Symbol: "km", Name: "kilometre", Scale: 1000},
		{Symbol: "in", Name: "inch", Scale: 0.0254, Aliases: []string{"inch"}},
		{Symbol: "ft", Name: "foot", Scale: 0.3048},
	},
	domain.CategoryMass: {
		{Symbol: "kg", Name: "kilogram", Scale: 1},
		{Symbol: "g", Name: "gram", Scale: 0.001},
		{Symbol: "lb", Name: "pound", Scale: 0.453592},
		{Symbol: "tonne", Name: "metric ton", Scale: 1000},
	},
	domain.CategoryForce: {
		{Symbol: "N", Name: "newton", Scale: 1},
		{Symbol: "kN", Name: "kilonewton", Scale: 1000},
		{Symbol: "lbf", Name: "pound-force", Scale: 4.44822},
	},
	domain.CategoryPressure: {
		{Symbol: "Pa", Name: "pascal", Scale: 1},
		{Symbol: "kPa", Name: "kilopascal", Scale: 1000},
		{Symbol: "bar", Name: "bar", Scale: 1e5},
		{Symbol: "psi", Name: "pound per square inch", Scale: 6894.76},
	},
	domain.CategoryVolume: {
		{Symbol: "m3", Name: "cubic metre", Scale: 1},
		{Symbol: "L", Name: "litre", Scale: 0.001},
		{Symbol: "cm3", Name: "cubic centimetre", Scale: 1e-6},
		{Symbol: "in3", Name: "cubic inch", Scale: 1.6387e-5},
	},
	domain.CategoryEnergy: {
		{Symbol: "J", Name: "joule", Scale: 1},
		{Symbol: "kJ", Name: "kilojoule", Scale: 1000},
		{Symbol: "MJ", Name: "megajoule", Scale: 1e6},
		{Symbol: "Wh", Name: "watt-hour", Scale: 3600},
		{Symbol: "kWh", Name: "kilowatt-hour", Scale: 3.6e6},
		{Symbol: "cal", Name: "calorie", Scale: 4.184},
	},
	domain.CategoryPower: {
		{Symbol: "W", Name: "watt", Scale: 1},
		{Symbol: "kW", Name: "kilowatt", Scale: 1000},
		{Symbol: "MW", Name: "megawatt", Scale: 1e6},
		{Symbol: "hp", Name: "horsepower", Scale: 745.7},
	},
}

var temperatureUnits = []domain.Unit{
	{Symbol: "C", Name: "Celsius", Aliases: []string{"celsius"}},
	{Symbol: "F", Name: "Fahrenheit", Aliases: []string{"fahrenheit"}},
	{Symbol: "K", Name: "Kelvin", Aliases: []string{"kelvin"}},
}
