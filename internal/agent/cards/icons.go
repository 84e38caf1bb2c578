package cards

import "strings"

// weatherIcons maps provider icon codes to asset names.
var weatherIcons = map[int]string{
	1:  "sunny",
	2:  "mostly-sunny",
	3:  "partly-sunny",
	4:  "intermittent-clouds",
	5:  "hazy-sunshine",
	6:  "mostly-cloudy",
	7:  "cloudy",
	8:  "overcast",
	11: "fog",
	12: "showers",
	13: "mostly-cloudy-showers",
	14: "partly-sunny-showers",
	15: "thunderstorms",
	16: "mostly-cloudy-thunderstorms",
	17: "partly-sunny-thunderstorms",
	18: "rain",
	19: "flurries",
	20: "mostly-cloudy-flurries",
	21: "partly-sunny-flurries",
	22: "snow",
	23: "mostly-cloudy-snow",
	24: "ice",
	25: "sleet",
	26: "freezing-rain",
	29: "rain-and-snow",
	30: "hot",
	31: "cold",
	32: "windy",
	33: "clear-night",
	34: "mostly-clear-night",
	35: "partly-cloudy-night",
	36: "intermittent-clouds-night",
	37: "hazy-moonlight",
	38: "mostly-cloudy-night",
	39: "partly-cloudy-showers-night",
	40: "mostly-cloudy-showers-night",
	41: "partly-cloudy-thunderstorms-night",
	42: "mostly-cloudy-thunderstorms-night",
	43: "mostly-cloudy-flurries-night",
	44: "mostly-cloudy-snow-night",
}

// IconURL joins the asset base with the icon name. Unknown codes yield "".
func IconURL(base string, code int) string {
	name, ok := weatherIcons[code]
	if !ok || base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name + ".png"
}
