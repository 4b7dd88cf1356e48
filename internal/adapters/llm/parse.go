package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// ErrUnparseable se devuelve cuando la respuesta no contiene cinco números.
var ErrUnparseable = errors.New("could not parse 5 quantiles from response")

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseQuantiles extrae los cinco primeros números de la respuesta y los ordena
// para garantizar monotonicidad.
func ParseQuantiles(text string) (domain.QuantileForecast, error) {
	matches := numberRe.FindAllString(text, -1)
	if len(matches) < 5 {
		return domain.QuantileForecast{}, fmt.Errorf("llm.ParseQuantiles: found %v: %w", matches, ErrUnparseable)
	}

	values := make([]float64, 5)
	for i, m := range matches[:5] {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return domain.QuantileForecast{}, fmt.Errorf("llm.ParseQuantiles: %q: %w", m, err)
		}
		values[i] = v
	}
	return domain.SortedQuantiles(values)
}
