package dialog

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode maps loosely typed frame data onto a struct. Frame args and locals
// come back from storage as generic JSON maps, so numbers and nested values
// are decoded weakly.
func Decode(input any, out any) error {
	if input == nil {
		return nil
	}
	if m, ok := input.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}
