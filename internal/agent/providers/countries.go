package providers

import (
	"strings"
	"unicode"
)

// countries maps lower-cased country names and common aliases to ISO 3166-1 alpha-2 codes.
var countries = map[string]string{
	"argentina":                "AR",
	"australia":                "AU",
	"austria":                  "AT",
	"belgium":                  "BE",
	"brazil":                   "BR",
	"bulgaria":                 "BG",
	"canada":                   "CA",
	"chile":                    "CL",
	"china":                    "CN",
	"colombia":                 "CO",
	"croatia":                  "HR",
	"czech republic":           "CZ",
	"czechia":                  "CZ",
	"denmark":                  "DK",
	"egypt":                    "EG",
	"estonia":                  "EE",
	"finland":                  "FI",
	"france":                   "FR",
	"germany":                  "DE",
	"greece":                   "GR",
	"hong kong":                "HK",
	"hungary":                  "HU",
	"iceland":                  "IS",
	"india":                    "IN",
	"indonesia":                "ID",
	"ireland":                  "IE",
	"israel":                   "IL",
	"italy":                    "IT",
	"japan":                    "JP",
	"kenya":                    "KE",
	"latvia":                   "LV",
	"lithuania":                "LT",
	"luxembourg":               "LU",
	"malaysia":                 "MY",
	"mexico":                   "MX",
	"netherlands":              "NL",
	"the netherlands":          "NL",
	"new zealand":              "NZ",
	"nigeria":                  "NG",
	"norway":                   "NO",
	"philippines":              "PH",
	"poland":                   "PL",
	"portugal":                 "PT",
	"romania":                  "RO",
	"russia":                   "RU",
	"saudi arabia":             "SA",
	"singapore":                "SG",
	"slovakia":                 "SK",
	"slovenia":                 "SI",
	"south africa":             "ZA",
	"south korea":              "KR",
	"korea":                    "KR",
	"spain":                    "ES",
	"sweden":                   "SE",
	"switzerland":              "CH",
	"taiwan":                   "TW",
	"thailand":                 "TH",
	"turkey":                   "TR",
	"ukraine":                  "UA",
	"united arab emirates":     "AE",
	"uae":                      "AE",
	"united kingdom":           "GB",
	"great britain":            "GB",
	"uk":                       "GB",
	"england":                  "GB",
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"america":                  "US",
	"vietnam":                  "VN",
}

var countryCodes = func() map[string]bool {
	m := make(map[string]bool, len(countries))
	for _, code := range countries {
		m[code] = true
	}
	return m
}()

// LookupCountry resolves a free-text country name or ISO code.
func LookupCountry(input string) (string, bool) {
	s := strings.ToLower(strings.TrimFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", false
	}
	if code, ok := countries[s]; ok {
		return code, true
	}
	if up := strings.ToUpper(s); len(up) == 2 && countryCodes[up] {
		return up, true
	}
	return "", false
}
