package converter

// Temperature symbols after canonicalisation.
const (
	celsius    = "C"
	fahrenheit = "F"
	kelvin     = "K"
)

// toCelsius and fromCelsius form the two legs of the Celsius pivot. Both
// symbols are already canonical, so the default branch is Celsius itself.
func toCelsius(v float64, from string) float64 {
	switch from {
	case fahrenheit:
		return (v - 32) * 5 / 9
	case kelvin:
		return v - 273.15
	default:
		return v
	}
}

func fromCelsius(v float64, to string) float64 {
	switch to {
	case fahrenheit:
		return v*9/5 + 32
	case kelvin:
		return v + 273.15
	default:
		return v
	}
}

func convertTemperature(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	return fromCelsius(toCelsius(v, from), to)
}
