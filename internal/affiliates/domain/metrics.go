package domain

// ConversionRate is registrations per click, 0 when there are no clicks.
func ConversionRate(registrations, clicks int) float64 {
	if clicks == 0 {
		return 0
	}
	return float64(registrations) / float64(clicks)
}
