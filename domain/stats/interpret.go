package stats

import "math"

// InterpretCohensD labels the magnitude of Cohen's d
func InterpretCohensD(d float64) string {
	a := math.Abs(d)
	switch {
	case a < 0.2:
		return "Negligible"
	case a < 0.5:
		return "Small"
	case a < 0.8:
		return "Medium"
	}
	return "Large"
}

// InterpretR labels the magnitude of the rank-biserial style effect r
func InterpretR(r float64) string {
	a := math.Abs(r)
	switch {
	case a < 0.1:
		return "Negligible"
	case a < 0.3:
		return "Small"
	case a < 0.5:
		return "Medium"
	}
	return "Large"
}

// Direction labels the sign of mean(Manual) - mean(IA)
func Direction(diff float64) string {
	switch {
	case diff > 0:
		return "Manual > IA"
	case diff < 0:
		return "Manual < IA"
	}
	return "Manual = IA"
}

// SignificanceStars renders the conventional star notation for a p-value
func SignificanceStars(p, alpha float64) string {
	switch {
	case math.IsNaN(p) || p >= alpha:
		return "ns"
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	}
	return "*"
}
