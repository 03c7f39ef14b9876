package ledger

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"komagene-kasa/internal/model"
)

const (
	// ForecastHorizon is how many days ahead the projection runs.
	ForecastHorizon = 7
	// DefaultForecastWindow is how many trailing days feed the regression.
	DefaultForecastWindow = 14
	// trendDeadZone is the daily slope, relative to the mean, under which the
	// trend reads as stable.
	trendDeadZone = 0.02
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type ForecastPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Forecast is a rough revenue projection, not a guaranteed figure.
type Forecast struct {
	PredictedRevenue float64         `json:"predictedRevenue"`
	Trend            Trend           `json:"trend"`
	Confidence       int             `json:"confidence"` // 0..100, from R²
	Slope            float64         `json:"slope"`
	BasedOnDays      int             `json:"basedOnDays"`
	NextWeekData     []ForecastPoint `json:"nextWeekData"`
}

// GenerateForecast fits an ordinary least-squares line to the daily revenue of
// the last window records (by date) and projects ForecastHorizon days past the
// last one. today anchors the projection when there is no usable record date.
func GenerateForecast(records []model.DailyRecord, window int, today time.Time) Forecast {
	if window <= 0 {
		window = DefaultForecastWindow
	}

	sorted := SortRecords(records, SortByDate, Asc)
	if len(sorted) > window {
		sorted = sorted[len(sorted)-window:]
	}

	ys := make([]float64, len(sorted))
	for i, r := range sorted {
		ys[i] = TotalIncome(r)
	}

	base := today
	if n := len(sorted); n > 0 {
		if d, err := time.Parse(model.DateLayout, sorted[n-1].Date); err == nil {
			base = d
		}
	}

	fc := Forecast{Trend: TrendStable, BasedOnDays: len(ys)}

	var slope, intercept float64
	switch len(ys) {
	case 0:
	case 1:
		intercept = ys[0]
	default:
		slope, intercept = fitLine(ys)
		fc.Confidence = confidence(ys)
	}
	fc.Slope = slope

	n := float64(len(ys))
	fc.NextWeekData = make([]ForecastPoint, ForecastHorizon)
	for k := 1; k <= ForecastHorizon; k++ {
		v := intercept + slope*(n-1+float64(k))
		if len(ys) == 0 || v < 0 {
			v = 0
		}
		fc.NextWeekData[k-1] = ForecastPoint{
			Date:  base.AddDate(0, 0, k).Format(model.DateLayout),
			Value: v,
		}
		fc.PredictedRevenue += v
	}

	if len(ys) >= 2 {
		mean, _ := stats.Mean(ys)
		fc.Trend = trendOf(slope, mean)
	}
	return fc
}

// fitLine returns slope and intercept of y over x = 0..n-1.
func fitLine(ys []float64) (slope, intercept float64) {
	series := make(stats.Series, len(ys))
	for i, y := range ys {
		series[i] = stats.Coordinate{X: float64(i), Y: y}
	}

	fitted, err := stats.LinearRegression(series)
	if err != nil || len(fitted) < 2 {
		mean, _ := stats.Mean(ys)
		return 0, mean
	}

	first, last := fitted[0], fitted[len(fitted)-1]
	slope = (last.Y - first.Y) / (last.X - first.X)
	intercept = first.Y - slope*first.X
	return slope, intercept
}

// confidence is R² of the fit as a percentage. A flat series fits perfectly.
func confidence(ys []float64) int {
	variance, _ := stats.PopulationVariance(ys)
	if variance == 0 {
		return 100
	}

	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	r, err := stats.Correlation(xs, ys)
	if err != nil || math.IsNaN(r) {
		return 0
	}

	c := int(math.Round(r * r * 100))
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func trendOf(slope, mean float64) Trend {
	if mean == 0 {
		switch {
		case slope > 0:
			return TrendUp
		case slope < 0:
			return TrendDown
		}
		return TrendStable
	}

	rel := slope / math.Abs(mean)
	switch {
	case rel > trendDeadZone:
		return TrendUp
	case rel < -trendDeadZone:
		return TrendDown
	}
	return TrendStable
}
