package upstream

import (
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// decodeItem mapea un objeto JSON suelto a un struct con tags mapstructure.
// Los servicios externos mezclan numeros y strings, por eso se usa WeaklyTypedInput.
func decodeItem(item map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(item)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// clampScore normaliza scores a 0..100; nil significa que el servicio no envio score.
func clampScore(v *float64) *int {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	s := int(math.Round(*v))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return &s
}
