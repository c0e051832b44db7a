package regions

import (
	"errors"
	"strings"

	"github.com/paulmach/orb"
)

// ErrRecordShapeMismatch — количество атрибутных записей не совпало с
// количеством геометрий; такой файл целиком отбраковывается
var ErrRecordShapeMismatch = errors.New("shapefile records and shapes length mismatch")

// Shape — геометрия одной записи шейп-файла: плоский список точек
// (x=долгота, y=широта) и смещения начал колец
type Shape struct {
	Points []orb.Point
	Parts  []int
}

// Типовые имена атрибута с названием региона
var preferredNameFields = map[string]struct{}{
	"NAME":      {},
	"NAME_1":    {},
	"NAME_RU":   {},
	"NAME_RUS":  {},
	"NAME_RU_1": {},
	"REGION":    {},
	"SUBJECT":   {},
}

// DetectNameField ищет поле с названием региона: сначала по списку
// типовых имен (без учета регистра), иначе второе поле, иначе первое,
// иначе -1 (название всегда "UNKNOWN")
func DetectNameField(fields []string) int {
	for i, f := range fields {
		if _, ok := preferredNameFields[strings.ToUpper(f)]; ok {
			return i
		}
	}
	switch {
	case len(fields) > 1:
		return 1
	case len(fields) == 1:
		return 0
	default:
		return -1
	}
}

func recordName(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return "UNKNOWN"
	}
	name := strings.TrimSpace(rec[idx])
	if name == "" {
		return "UNKNOWN"
	}
	return name
}

// GroupByRegion раскладывает кольца всех шейпов по названиям регионов.
// records и shapes идут попарно; расхождение длин — структурная ошибка
// входа, а не повод что-то чинить.
func GroupByRegion(fields []string, records [][]string, shapes []Shape) (map[string][]orb.Ring, error) {
	if len(records) != len(shapes) {
		return nil, ErrRecordShapeMismatch
	}

	nameField := DetectNameField(fields)

	grouped := make(map[string][]orb.Ring)
	for i, shape := range shapes {
		rings := splitRings(shape)
		if len(rings) == 0 {
			continue
		}
		name := recordName(records[i], nameField)
		grouped[name] = append(grouped[name], rings...)
	}
	return grouped, nil
}

// splitRings режет плоский список точек на кольца по смещениям частей;
// вырожденные кольца (меньше 3 точек) отбрасываются
func splitRings(s Shape) []orb.Ring {
	if len(s.Points) == 0 {
		return nil
	}

	bounds := append(append([]int{}, s.Parts...), len(s.Points))
	if len(s.Parts) == 0 {
		bounds = []int{0, len(s.Points)}
	}

	var rings []orb.Ring
	for i := 0; i < len(bounds)-1; i++ {
		start, end := bounds[i], bounds[i+1]
		if start < 0 || end > len(s.Points) || end-start < 3 {
			continue
		}
		ring := make(orb.Ring, end-start)
		copy(ring, s.Points[start:end])
		rings = append(rings, ring)
	}
	return rings
}
