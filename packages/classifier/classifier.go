package classifier

import (
	"regexp"
	"strings"
)

// Category — тип стороны (оператора/владельца БВС)
type Category string

const (
	LegalEntity            Category = "legal_entity"
	IndividualEntrepreneur Category = "individual_entrepreneur"
	Individual             Category = "individual"
	LikelyLegalEntity      Category = "likely_legal_entity"
	Unknown                Category = "unknown"
)

// Classification — результат классификации: категория и уверенность
// выставляются ровно одним сработавшим правилом
type Classification struct {
	Category   Category `bson:"category" json:"category"`
	Confidence float64  `bson:"confidence" json:"confidence"`
	Normalized string   `bson:"normalized" json:"normalized"`
}

// RE2 не знает границ слова для кириллицы, поэтому вместо \b —
// явные границы из не-буквенных символов.
const bl = `(?:^|[^\p{L}0-9])`
const br = `(?:[^\p{L}0-9]|$)`

var (
	legalMarkersRU = regexp.MustCompile(bl + `(?:ООО|АО|ПАО|ЗАО|ОАО|НКО|ФГУП|ГУП|МУП|СПАО|САО|НПАО|ПК|` +
		`ТСЖ|ЖСК|АНО|ФОНД|АСОЦИАЦИЯ|СРО|КФХ|ПО|ПТК|УНИТАРН\p{L}*\s+ПРЕДПР\p{L}*|` +
		`МЧС|МИНОБОРОНЫ|МИНИСТЕРСТВО|ЦЕНТР|УПРАВЛЕНИЕ|ИНСТИТУТ|` +
		`АВИАКОМПАНИЯ|АЭРОФЛОТ|AIRLINES|MINISTRY|ГУ\s+МЧС|ФГБУ)` + br)

	legalMarkersIntl = regexp.MustCompile(bl + `(?:LLC|INC\.?|L\.?T\.?D\.?|LTD\.?|GMBH|AG|S\.?A\.?|BV|N\.?V\.?|OY|AB|` +
		`S\.?R\.?O\.?|S\.?A\.?R\.?L\.?|PLC|LLP|PTE\.?\s+LTD\.?|SAS|S\.?A\.?U\.?)` + br)

	ieMarkers = regexp.MustCompile(bl + `(?:ИП|ИНДИВИДУАЛЬН\p{L}+\s+ПРЕДПРИНИМАТЕЛ\p{L}+)` + br)

	fioThree = regexp.MustCompile(`^[А-ЯЁ][а-яё'-]+\s+[А-ЯЁ][а-яё'-]+\s+[А-ЯЁ][а-яё'-]+$`)
	fioTwo   = regexp.MustCompile(`^[А-ЯЁ][а-яё'-]+\s+[А-ЯЁ][а-яё'-]+$`)
	fioInits = regexp.MustCompile(`^[А-ЯЁ][а-яё'-]+\s+[А-ЯЁ]\.[А-ЯЁ]\.$`)
	fioLatin = regexp.MustCompile(`^[A-Z][A-Za-z'-]+(?:\s+[A-Z][A-Za-z'-]+){1,2}$`)

	quotesRe = regexp.MustCompile(`[«»"'„“”]`)
	spacesRe = regexp.MustCompile(`\s+`)
)

var orgKeywords = []string{
	"компания",
	"банк",
	"страховая",
	"университет",
	"институт",
	"завод",
	"фабрика",
	"кооператив",
	"товарищество",
	"партнёрство",
	"ассоциация",
	"фонд",
	"company",
	"bank",
	"university",
	"institute",
	"foundation",
	"association",
	"cooperative",
	"partnership",
}

// rule — ярус каскада: предикат + готовый результат.
// Ярусы перебираются по порядку до первого совпадения.
type rule struct {
	category   Category
	confidence float64
	matches    func(norm, upper, lower string) bool
}

var rules = []rule{
	{LegalEntity, 0.98, func(_, upper, _ string) bool {
		return legalMarkersRU.MatchString(upper) || legalMarkersIntl.MatchString(upper)
	}},
	{IndividualEntrepreneur, 0.95, func(_, upper, _ string) bool {
		return ieMarkers.MatchString(upper)
	}},
	{Individual, 0.9, func(norm, _, _ string) bool {
		return fioThree.MatchString(norm) || fioInits.MatchString(norm) || fioTwo.MatchString(norm)
	}},
	{Individual, 0.8, func(norm, _, _ string) bool {
		return fioLatin.MatchString(norm)
	}},
	{LikelyLegalEntity, 0.6, func(_, _, lower string) bool {
		for _, kw := range orgKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}},
}

// Classify относит свободный текст имени оператора к категории.
// Пустая строка — легитимный вход, завершающийся на Unknown.
func Classify(name string) Classification {
	norm := Normalize(name)
	upper := strings.ToUpper(norm)
	lower := strings.ToLower(norm)

	for _, r := range rules {
		if r.matches(norm, upper, lower) {
			return Classification{Category: r.category, Confidence: r.confidence, Normalized: norm}
		}
	}
	return Classification{Category: Unknown, Confidence: 0.3, Normalized: norm}
}

// Normalize убирает кавычки и схлопывает пробелы
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = quotesRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
