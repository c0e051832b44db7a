package flight

import (
	"math"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/ru"

	"uavmonitor/packages/parsing/coordinates"
	"uavmonitor/packages/parsing/datetime"
	"uavmonitor/packages/parsing/messages"
)

// Колонки журнала полетов в исходном xlsx
const (
	ColCenter   = "Центр ЕС ОрВД"
	ColSHR      = "SHR"
	ColDEP      = "DEP"
	ColARR      = "ARR"
	ColOperator = "Оператор"
)

// Row — строка журнала по именам колонок; отсутствующая колонка
// читается как пустая строка
type Row map[string]string

func (r Row) Get(col string) string {
	if r == nil {
		return ""
	}
	return r[col]
}

// Record — разобранная запись о полете. Собирается один раз на строку
// журнала и дальше не меняется.
type Record struct {
	SID             string                 `bson:"sid" json:"sid"`
	UAVType         string                 `bson:"uav_type" json:"uav_type"`
	Takeoff         *coordinates.GeoPoint  `bson:"takeoff_point,omitempty" json:"takeoff_point"`
	Landing         *coordinates.GeoPoint  `bson:"landing_point,omitempty" json:"landing_point"`
	Coordinates     *coordinates.GeoPoint  `bson:"coordinates,omitempty" json:"coordinates"`
	TakeoffAt       *time.Time             `bson:"takeoff_datetime,omitempty" json:"takeoff_datetime"`
	LandingAt       *time.Time             `bson:"landing_datetime,omitempty" json:"landing_datetime"`
	Date            *time.Time             `bson:"date,omitempty" json:"date"`
	DurationMinutes *int                   `bson:"duration_minutes,omitempty" json:"duration_minutes"`
	IsWeekend       *bool                  `bson:"is_weekend,omitempty" json:"is_weekend"`
	IsHoliday       *bool                  `bson:"is_holiday,omitempty" json:"is_holiday"`
	City            string                 `bson:"city" json:"city"`
	DistanceKM      *float64               `bson:"distance_km,omitempty" json:"distance_km"`
	AverageSpeedKMH *float64               `bson:"average_speed_kmh,omitempty" json:"average_speed_kmh"`
	Route           []coordinates.GeoPoint `bson:"route_points,omitempty" json:"route_points"`
	Operator        string                 `bson:"operator" json:"operator"`
}

// Builder собирает Record из строки журнала. Таймзона задается явно и
// приписывается всем "наивным" меткам времени из телеграмм.
type Builder struct {
	loc      *time.Location
	holidays *cal.Calendar
}

func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	holidays := &cal.Calendar{Name: "Россия"}
	holidays.AddHoliday(ru.Holidays...)
	return &Builder{loc: loc, holidays: holidays}
}

// Build никогда не возвращает ошибку: пропущенные и битые поля
// телеграммы резолвятся в nil/значения по умолчанию.
func (b *Builder) Build(row Row) Record {
	shr := row.Get(ColSHR)
	dep := row.Get(ColDEP)
	arr := row.Get(ColARR)

	rec := Record{
		SID:  messages.ExtractField(dep, messages.FieldSID),
		City: strings.TrimSpace(row.Get(ColCenter)),
	}

	rec.UAVType = messages.ExtractField(shr, messages.FieldUAVType)
	if rec.UAVType == "" {
		rec.UAVType = "UNKNOWN"
	}

	rec.Operator = strings.TrimSpace(row.Get(ColOperator))
	if rec.Operator == "" {
		rec.Operator = strings.TrimSpace(messages.ExtractField(shr, messages.FieldOperator))
	}

	for _, line := range messages.RouteLines(shr) {
		for _, token := range messages.CoordTokens(line) {
			if pt := coordinates.Decode(token); pt != nil {
				rec.Route = append(rec.Route, *pt)
			}
		}
	}

	rec.Takeoff = coordinates.Decode(messages.ExtractField(dep, messages.FieldTakeoffCoord))
	rec.Landing = coordinates.Decode(messages.ExtractField(arr, messages.FieldLandingCoord))

	// Посадочная точка имеет приоритет над взлетной — так было в
	// исходных данных, сохраняем как есть
	switch {
	case rec.Landing != nil:
		rec.Coordinates = rec.Landing
	case rec.Takeoff != nil:
		rec.Coordinates = rec.Takeoff
	}

	dof := messages.ExtractField(dep, messages.FieldDateOfFlight)
	rec.TakeoffAt = datetime.Combine(dof, messages.ExtractField(dep, messages.FieldTimeOfDep), b.loc)
	rec.LandingAt = datetime.Combine(dof, messages.ExtractField(arr, messages.FieldTimeOfArr), b.loc)

	switch {
	case rec.TakeoffAt != nil:
		rec.Date = rec.TakeoffAt
	case rec.LandingAt != nil:
		rec.Date = rec.LandingAt
	}

	if rec.TakeoffAt != nil {
		weekday := rec.TakeoffAt.Weekday()
		weekend := weekday == time.Saturday || weekday == time.Sunday
		rec.IsWeekend = &weekend

		holiday, _, _ := b.holidays.IsHoliday(*rec.TakeoffAt)
		rec.IsHoliday = &holiday
	}

	if rec.TakeoffAt != nil && rec.LandingAt != nil {
		minutes := int(rec.LandingAt.Sub(*rec.TakeoffAt).Seconds() / 60)
		// Отрицательная длительность — проблема данных, не ошибка
		if minutes >= 0 {
			rec.DurationMinutes = &minutes
		}
	}

	if rec.Takeoff != nil && rec.Landing != nil {
		km := haversineKM(*rec.Takeoff, *rec.Landing)
		rec.DistanceKM = &km
	}

	if rec.DistanceKM != nil && rec.DurationMinutes != nil && *rec.DurationMinutes > 0 {
		speed := *rec.DistanceKM / float64(*rec.DurationMinutes) * 60
		rec.AverageSpeedKMH = &speed
	}

	return rec
}

const earthRadiusKM = 6371.0

// haversineKM — расстояние по дуге большого круга на сферической Земле
func haversineKM(a, b coordinates.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
