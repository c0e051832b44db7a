package messages

import "regexp"

// Имена полей, извлекаемых из секций телеграммы.
// SHR — план полета, DEP — донесение о вылете, ARR — донесение о посадке.
const (
	FieldSID          = "sid"           // номер полета (DEP)
	FieldUAVType      = "uav_type"      // тип БВС (SHR)
	FieldOperator     = "operator"      // оператор (SHR)
	FieldDateOfFlight = "date"          // дата полета ггммдд (DEP)
	FieldTimeOfDep    = "dep_time"      // фактическое время вылета ччмм (DEP)
	FieldTimeOfArr    = "arr_time"      // фактическое время посадки ччмм (ARR)
	FieldTakeoffCoord = "takeoff_coord" // координата вылета (DEP)
	FieldLandingCoord = "landing_coord" // координата посадки (ARR)
)

// Каждое поле — независимый поиск по прекомпилированному шаблону,
// первая группа захвата. Частично заполненные записи — норма.
var patterns = map[string]*regexp.Regexp{
	FieldSID:          regexp.MustCompile(`-SID\s+(\d+)`),
	FieldUAVType:      regexp.MustCompile(`TYP/([A-Z0-9]+)`),
	FieldOperator:     regexp.MustCompile(`OPR/(.+?)(?:\s+[A-Z]{3,4}/|$)`),
	FieldDateOfFlight: regexp.MustCompile(`-ADD\s+(\d{6})`),
	FieldTimeOfDep:    regexp.MustCompile(`-ATD\s+(\d{4})`),
	FieldTimeOfArr:    regexp.MustCompile(`-ATA\s+(\d{4})`),
	FieldTakeoffCoord: regexp.MustCompile(`-ADEPZ\b[\s\S]*?(\d{4,6}[NSСЮ]\d{5,7}[EWВЗ])`),
	FieldLandingCoord: regexp.MustCompile(`-ADARRZ\b[\s\S]*?(\d{4,6}[NSСЮ]\d{5,7}[EWВЗ])`),
}

var (
	routeLineRe  = regexp.MustCompile(`(?m)^-M.*$`)
	coordTokenRe = regexp.MustCompile(`\d{4,6}[NSСЮ]\d{5,7}[EWВЗ]`)
)

// Extract возвращает первую группу захвата или пустую строку
func Extract(text string, re *regexp.Regexp) string {
	if matches := re.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// ExtractField извлекает именованное поле из текста секции
func ExtractField(text, field string) string {
	re, ok := patterns[field]
	if !ok {
		return ""
	}
	return Extract(text, re)
}

// RouteLines возвращает строки маршрута (начинающиеся с "-M") из плана полета
func RouteLines(text string) []string {
	return routeLineRe.FindAllString(text, -1)
}

// CoordTokens возвращает все координатные токены в строке маршрута
func CoordTokens(line string) []string {
	return coordTokenRe.FindAllString(line, -1)
}
