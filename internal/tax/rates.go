package tax

// Standard VAT rates in basis points per EU member state, current as of 2025.
// The art marketplace sells under the standard rate; margin schemes and
// reduced art rates are out of scope here.
var standardRateBpsByCountry = map[string]int64{
	"AT": 2000,
	"BE": 2100,
	"BG": 2000,
	"HR": 2500,
	"CY": 1900,
	"CZ": 2100,
	"DK": 2500,
	"EE": 2200,
	"FI": 2550,
	"FR": 2000,
	"DE": 1900,
	"GR": 2400,
	"HU": 2700,
	"IE": 2300,
	"IT": 2200,
	"LV": 2100,
	"LT": 2100,
	"LU": 1700,
	"MT": 1800,
	"NL": 2100,
	"PL": 2300,
	"PT": 2300,
	"RO": 1900,
	"SK": 2300,
	"SI": 2200,
	"ES": 2100,
	"SE": 2500,
}

// InJurisdiction reports whether the country is inside the VAT jurisdiction.
func InJurisdiction(country string) bool {
	_, ok := standardRateBpsByCountry[country]
	return ok
}

// StandardRateBps returns the destination's standard rate, or 0 when the
// country is outside the jurisdiction.
func StandardRateBps(country string) int64 {
	return standardRateBpsByCountry[country]
}
