package coordinates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// GeoPoint — точка в градусах WGS84
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

var (
	latLetterRe = regexp.MustCompile(`[NS]`)
	lonLetterRe = regexp.MustCompile(`[EW]`)

	// Градусы, две цифры минут, опционально две цифры секунд
	// и/или десятичная дробь последней компоненты
	componentRe = regexp.MustCompile(`^(\d{1,3})(\d{2})(\d{2})?(?:\.(\d+))?$`)

	separators = strings.NewReplacer("°", "", "'", "", `"`, "", ",", " ", "  ", " ")
	cyrillic   = strings.NewReplacer("С", "N", "Ю", "S", "В", "E", "З", "W")
)

// Decode разбирает свободный текст координаты вида "550630N0373030E"
// (допустимы кириллические буквы направлений и разделители °'",).
// Возвращает nil для любого некорректного токена — отсутствующие или
// битые координаты в телеграммах ожидаемы и не должны валить пайплайн.
func Decode(token string) *GeoPoint {
	s := strings.ToUpper(strings.TrimSpace(token))
	s = separators.Replace(s)
	s = cyrillic.Replace(s)

	latLoc := latLetterRe.FindStringIndex(s)
	lonLoc := lonLetterRe.FindStringIndex(s)
	if latLoc == nil || lonLoc == nil || lonLoc[0] < latLoc[1] {
		return nil
	}

	latPart := strings.TrimSpace(s[:latLoc[0]])
	lonPart := strings.TrimSpace(s[latLoc[1]:lonLoc[0]])
	if latPart == "" || lonPart == "" {
		return nil
	}

	lat, ok := parseComponent(latPart)
	if !ok {
		return nil
	}
	lon, ok := parseComponent(lonPart)
	if !ok {
		return nil
	}

	if s[latLoc[0]] == 'S' {
		lat = -lat
	}
	if s[lonLoc[0]] == 'W' {
		lon = -lon
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &GeoPoint{Lat: lat, Lon: lon}
}

// parseComponent превращает "5506", "550630" или "5506.5" в десятичные градусы
func parseComponent(part string) (float64, bool) {
	part = strings.ReplaceAll(part, " ", "")
	m := componentRe.FindStringSubmatch(part)
	if m == nil {
		return 0, false
	}

	deg, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}

	frac := 0.0
	if m[4] != "" {
		frac, err = strconv.ParseFloat("0."+m[4], 64)
		if err != nil {
			return 0, false
		}
	}

	if m[3] != "" {
		// Компонента с секундами: DDMMSS[.ss]
		seconds, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, false
		}
		minutes += (seconds + frac) / 60.0
	} else {
		minutes += frac
	}

	return float64(deg) + minutes/60.0, true
}

// Token кодирует точку обратно в компактный авиационный формат
// DDMMSS[N/S]DDDMMSS[E/W]; Decode(p.Token()) восстанавливает точку
// с точностью до секунды дуги.
func (p GeoPoint) Token() string {
	latHemi, lonHemi := byte('N'), byte('E')
	lat, lon := p.Lat, p.Lon
	if lat < 0 {
		latHemi = 'S'
		lat = -lat
	}
	if lon < 0 {
		lonHemi = 'W'
		lon = -lon
	}

	latDeg, latMin, latSec := toDMS(lat)
	lonDeg, lonMin, lonSec := toDMS(lon)

	return fmt.Sprintf("%02d%02d%02d%c%03d%02d%02d%c",
		latDeg, latMin, latSec, latHemi,
		lonDeg, lonMin, lonSec, lonHemi)
}

func toDMS(v float64) (deg, min, sec int) {
	total := int(math.Round(v * 3600))
	deg = total / 3600
	min = (total % 3600) / 60
	sec = total % 60
	return deg, min, sec
}
