package flight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uavmonitor/packages/parsing/coordinates"
)

var msk = time.FixedZone("MSK", 3*3600)

func fullRow() Row {
	return Row{
		ColCenter: "Московский",
		ColSHR: `(SHR-ZZZZZ
-ZZZZ1000
-M0050/M0100 /ZONA 5530N03730E 5540N03740E/
-ZZZZ1030
-DEP/5530N03730E DEST/5540N03740E DOF/230101 OPR/ИВАНОВ ИВАН
TYP/BLA SID/1234567890)`,
		ColDEP: `-TITLE IDEP
-SID 1234567890
-ADD 230101
-ATD 1000
-ADEPZ 5530N03730E`,
		ColARR: `-TITLE IARR
-SID 1234567890
-ADA 230101
-ATA 1030
-ADARRZ 5540N03740E`,
	}
}

func TestBuild(t *testing.T) {
	rec := NewBuilder(msk).Build(fullRow())

	assert.Equal(t, "1234567890", rec.SID)
	assert.Equal(t, "BLA", rec.UAVType)
	assert.Equal(t, "Московский", rec.City)
	assert.Equal(t, "ИВАНОВ ИВАН", rec.Operator)

	require.NotNil(t, rec.Takeoff)
	assert.InDelta(t, 55.5, rec.Takeoff.Lat, 1e-9)
	assert.InDelta(t, 37.5, rec.Takeoff.Lon, 1e-9)

	require.NotNil(t, rec.Landing)
	assert.InDelta(t, 55.0+40.0/60, rec.Landing.Lat, 1e-9)

	// посадочная точка приоритетнее взлетной
	require.NotNil(t, rec.Coordinates)
	assert.Equal(t, *rec.Landing, *rec.Coordinates)

	require.NotNil(t, rec.TakeoffAt)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, msk), *rec.TakeoffAt)
	require.NotNil(t, rec.LandingAt)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 30, 0, 0, msk), *rec.LandingAt)
	require.NotNil(t, rec.Date)
	assert.Equal(t, *rec.TakeoffAt, *rec.Date)

	require.NotNil(t, rec.DurationMinutes)
	assert.Equal(t, 30, *rec.DurationMinutes)

	// 1 января 2023 — воскресенье и праздник
	require.NotNil(t, rec.IsWeekend)
	assert.True(t, *rec.IsWeekend)
	require.NotNil(t, rec.IsHoliday)
	assert.True(t, *rec.IsHoliday)

	require.NotNil(t, rec.DistanceKM)
	assert.Greater(t, *rec.DistanceKM, 0.0)
	require.NotNil(t, rec.AverageSpeedKMH)
	assert.InDelta(t, *rec.DistanceKM/30*60, *rec.AverageSpeedKMH, 1e-9)

	assert.Len(t, rec.Route, 2)
}

func TestBuildOperatorColumnWins(t *testing.T) {
	row := fullRow()
	row[ColOperator] = "ООО Ромашка"
	rec := NewBuilder(msk).Build(row)
	assert.Equal(t, "ООО Ромашка", rec.Operator)
}

func TestBuildEmptyRow(t *testing.T) {
	rec := NewBuilder(msk).Build(Row{})

	assert.Empty(t, rec.SID)
	assert.Equal(t, "UNKNOWN", rec.UAVType)
	assert.Nil(t, rec.Takeoff)
	assert.Nil(t, rec.Landing)
	assert.Nil(t, rec.Coordinates)
	assert.Nil(t, rec.TakeoffAt)
	assert.Nil(t, rec.Date)
	assert.Nil(t, rec.DurationMinutes)
	assert.Nil(t, rec.IsWeekend)
	assert.Nil(t, rec.IsHoliday)
	assert.Nil(t, rec.DistanceKM)
	assert.Nil(t, rec.AverageSpeedKMH)
	assert.Empty(t, rec.Route)
}

func TestBuildNegativeDuration(t *testing.T) {
	row := fullRow()
	row[ColARR] = "-SID 1234567890 -ATA 0930 -ADARRZ 5540N03740E"
	rec := NewBuilder(msk).Build(row)

	assert.Nil(t, rec.DurationMinutes)
	assert.Nil(t, rec.AverageSpeedKMH)
	// расстояние все равно считается по точкам
	assert.NotNil(t, rec.DistanceKM)
}

func TestBuildTakeoffOnlyCoordinates(t *testing.T) {
	row := fullRow()
	row[ColARR] = ""
	rec := NewBuilder(msk).Build(row)

	require.NotNil(t, rec.Takeoff)
	require.NotNil(t, rec.Coordinates)
	assert.Equal(t, *rec.Takeoff, *rec.Coordinates)
	assert.Nil(t, rec.Landing)
	assert.Nil(t, rec.LandingAt)
	assert.Nil(t, rec.DurationMinutes)
}

func TestBuildCalendarFlags(t *testing.T) {
	tests := []struct {
		name    string
		dof     string
		weekend bool
		holiday bool
	}{
		{"weekday", "230315", false, false},
		{"saturday", "230311", true, false},
		{"victory day on a tuesday", "230509", false, true},
		{"new year on a sunday", "230101", true, true},
	}

	b := NewBuilder(msk)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fullRow()
			row[ColDEP] = "-SID 1234567890\n-ADD " + tt.dof + "\n-ATD 1000"
			rec := b.Build(row)

			require.NotNil(t, rec.IsWeekend)
			assert.Equal(t, tt.weekend, *rec.IsWeekend)
			require.NotNil(t, rec.IsHoliday)
			assert.Equal(t, tt.holiday, *rec.IsHoliday)
		})
	}
}

func TestHaversineKM(t *testing.T) {
	moscow := coordinates.GeoPoint{Lat: 55.7558, Lon: 37.6173}
	spb := coordinates.GeoPoint{Lat: 59.9343, Lon: 30.3351}

	d := haversineKM(moscow, spb)
	assert.InDelta(t, 634, d, 10)

	assert.Zero(t, haversineKM(moscow, moscow))
}
