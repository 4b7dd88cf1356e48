package llm

import (
	"fmt"
	"math"
	"strings"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

const systemPrompt = `You are a social scientist forecasting survey trends.
Provide quantile predictions - values you're X% confident the actual will be BELOW.`

// FormatHistory formatea la historia como una línea "  YYYY: NN%" por año.
func FormatHistory(years []int, values []float64) string {
	lines := make([]string, len(years))
	for i, y := range years {
		lines[i] = fmt.Sprintf("  %d: %d%%", y, int(math.RoundToEven(values[i])))
	}
	return strings.Join(lines, "\n")
}

// BuildQuantilePrompt devuelve los prompts de sistema y de usuario para pedir
// los cinco cuantiles de req.
func BuildQuantilePrompt(req domain.ElicitationRequest) (system, user string) {
	description := req.Description
	if description == "" {
		description = req.Variable
	}

	user = fmt.Sprintf(`Based on historical General Social Survey data, forecast the distribution of
"%s" (%% giving this response) in %d.

Historical data:
%s

Provide your forecast as 5 quantiles (values the actual will be BELOW with given probability):
- 10th percentile (10%% chance actual is below this):
- 25th percentile (25%% chance actual is below this):
- 50th percentile (median, 50%% chance actual is below this):
- 75th percentile (75%% chance actual is below this):
- 90th percentile (90%% chance actual is below this):

Respond with ONLY 5 numbers, one per line, no other text.`,
		description, req.TargetYear, FormatHistory(req.Years, req.Values))

	return systemPrompt, user
}
