package datetime

import "time"

// Combine собирает дату "ггммдд" и время "ччмм" из телеграммы в
// момент времени в заданной таймзоне. Метка строится только когда
// присутствуют обе части; любой мусор дает nil, а не ошибку.
func Combine(dateStr, timeStr string, loc *time.Location) *time.Time {
	if dateStr == "" || timeStr == "" {
		return nil
	}

	// В телеграммах встречается полночь как 2400
	if timeStr == "2400" {
		timeStr = "2359"
	}

	if loc == nil {
		loc = time.UTC
	}

	ts, err := time.ParseInLocation("0601021504", dateStr+timeStr, loc)
	if err != nil {
		return nil
	}
	return &ts
}
