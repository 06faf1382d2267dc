package signal

import "alert-systemv1/internal/model"

// Closing prices captured from 5m bars. Each run is cut at the bar of
// interest, so the last element is the candle being evaluated.

// decline into a base, then a breakout bar: MACD and K/D both cross up out of
// oversold on the final bar.
var longCloses = []float64{
	100.0, 100.13, 98.7, 98.14, 98.5, 97.33, 94.97, 93.22, 94.08, 95.27,
	95.55, 95.9, 97.01, 95.5, 94.23, 92.24, 91.95, 91.71, 92.17, 90.62,
	90.97, 90.9, 90.64, 90.65, 91.42, 89.46, 89.81, 89.77, 90.07, 91.69,
	90.48, 90.52, 90.24, 90.2, 90.82, 91.26, 91.0, 91.49, 92.0, 92.17,
	91.53, 92.38, 92.29, 91.91, 91.38, 90.86, 92.79, 93.53, 93.52, 93.32,
	93.6, 93.94, 94.87, 93.58, 93.41, 93.07, 93.55, 92.68, 92.36, 90.85,
	93.07, 92.92, 92.83, 95.38,
}

// rally that rolls over: MACD and K/D both cross down out of overbought on
// the final bar.
var shortCloses = []float64{
	100.0, 99.57, 100.0, 101.67, 101.71, 101.19, 101.33, 101.65, 103.53, 103.79,
	103.9, 102.66, 102.97, 103.37, 104.64, 104.46, 104.51, 105.37, 106.43, 106.29,
	104.85, 105.48, 104.38, 104.66, 103.53, 102.96, 101.72, 100.54, 100.91, 100.92,
	100.22, 100.56, 99.48, 98.99, 98.81, 99.26, 98.41, 97.13, 96.71, 97.78,
	98.7, 98.68, 98.3, 97.74, 97.62, 98.01, 97.92, 98.82, 97.11, 95.37,
}

// MACD crosses up from an oversold K with RSI above 50, but K stays below D.
var macdOnlyCloses = []float64{
	100.0, 100.37, 102.9, 104.0, 105.11, 105.76, 106.14, 106.83, 106.83, 106.13,
	105.27, 104.15, 104.49, 105.16, 106.92, 107.54, 107.93, 108.71, 108.81, 107.01,
	108.19, 107.83, 108.17, 108.01, 111.1, 112.38, 112.92, 111.87, 112.9, 112.09,
	113.39, 111.94, 111.96, 113.03, 112.26, 112.49, 112.77, 113.86, 113.47, 114.3,
	116.57,
}

const baseTS = int64(1705314600000) // 2024-01-15 10:30:00 UTC

func seriesOf(closes []float64) model.Series {
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.Candle{
			TS:    baseTS + int64(i)*300_000,
			Open:  c,
			High:  c + 0.25,
			Low:   c - 0.25,
			Close: c,
		}
	}
	return s
}

func flatSeries(n int, price float64) model.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return seriesOf(closes)
}
