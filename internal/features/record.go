package features

import "time"

// Columns is the column order the predictor expects. It must not change
// without retraining or re-exporting the model artifact.
var Columns = []string{
	"campus_building",
	"built_year",
	"gross_floor_area",
	"room_area",
	"capacity",
	"apparent_temperature",
	"air_temperature",
	"dew_point_temperature",
	"relative_humidity",
	"wind_speed",
	"wind_direction",
	"is_holiday",
	"is_semester",
	"is_exam",
	"minute",
	"hour",
	"day_of_week",
	"month",
	"year",
	"category",
}

// Input holds one value per field collected by the input surface.
// Timestamp is the combined date and time of the reading.
type Input struct {
	CampusBuilding      string
	Category            string
	BuiltYear           int
	GrossFloorArea      float64
	RoomArea            float64
	Capacity            int
	ApparentTemperature float64
	AirTemperature      float64
	DewPointTemperature float64
	RelativeHumidity    float64
	WindSpeed           float64
	WindDirection       int
	IsHoliday           int
	IsSemester          int
	IsExam              int
	Timestamp           time.Time
}

// Record is one row handed to the predictor. Field order matches Columns.
type Record struct {
	CampusBuilding      string  `json:"campus_building"`
	BuiltYear           int     `json:"built_year"`
	GrossFloorArea      float64 `json:"gross_floor_area"`
	RoomArea            float64 `json:"room_area"`
	Capacity            int     `json:"capacity"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	AirTemperature      float64 `json:"air_temperature"`
	DewPointTemperature float64 `json:"dew_point_temperature"`
	RelativeHumidity    float64 `json:"relative_humidity"`
	WindSpeed           float64 `json:"wind_speed"`
	WindDirection       int     `json:"wind_direction"`
	IsHoliday           int     `json:"is_holiday"`
	IsSemester          int     `json:"is_semester"`
	IsExam              int     `json:"is_exam"`
	Minute              int     `json:"minute"`
	Hour                int     `json:"hour"`
	DayOfWeek           int     `json:"day_of_week"`
	Month               int     `json:"month"`
	Year                int     `json:"year"`
	Category            string  `json:"category"`
}

// Assemble builds a Record from collected input. It performs no validation.
func Assemble(in Input) Record {
	cal := DeriveCalendar(in.Timestamp)

	return Record{
		CampusBuilding:      in.CampusBuilding,
		BuiltYear:           in.BuiltYear,
		GrossFloorArea:      in.GrossFloorArea,
		RoomArea:            in.RoomArea,
		Capacity:            in.Capacity,
		ApparentTemperature: in.ApparentTemperature,
		AirTemperature:      in.AirTemperature,
		DewPointTemperature: in.DewPointTemperature,
		RelativeHumidity:    in.RelativeHumidity,
		WindSpeed:           in.WindSpeed,
		WindDirection:       in.WindDirection,
		IsHoliday:           in.IsHoliday,
		IsSemester:          in.IsSemester,
		IsExam:              in.IsExam,
		Minute:              cal.Minute,
		Hour:                cal.Hour,
		DayOfWeek:           cal.DayOfWeek,
		Month:               cal.Month,
		Year:                cal.Year,
		Category:            in.Category,
	}
}

// Columns returns the column names of the record, in order.
func (r Record) Columns() []string {
	out := make([]string, len(Columns))
	copy(out, Columns)
	return out
}

// Values returns the record values in column order.
func (r Record) Values() []interface{} {
	return []interface{}{
		r.CampusBuilding,
		r.BuiltYear,
		r.GrossFloorArea,
		r.RoomArea,
		r.Capacity,
		r.ApparentTemperature,
		r.AirTemperature,
		r.DewPointTemperature,
		r.RelativeHumidity,
		r.WindSpeed,
		r.WindDirection,
		r.IsHoliday,
		r.IsSemester,
		r.IsExam,
		r.Minute,
		r.Hour,
		r.DayOfWeek,
		r.Month,
		r.Year,
		r.Category,
	}
}

// Numeric returns the value of a numeric column. ok is false for categorical
// or unknown columns.
func (r Record) Numeric(column string) (value float64, ok bool) {
	switch column {
	case "built_year":
		return float64(r.BuiltYear), true
	case "gross_floor_area":
		return r.GrossFloorArea, true
	case "room_area":
		return r.RoomArea, true
	case "capacity":
		return float64(r.Capacity), true
	case "apparent_temperature":
		return r.ApparentTemperature, true
	case "air_temperature":
		return r.AirTemperature, true
	case "dew_point_temperature":
		return r.DewPointTemperature, true
	case "relative_humidity":
		return r.RelativeHumidity, true
	case "wind_speed":
		return r.WindSpeed, true
	case "wind_direction":
		return float64(r.WindDirection), true
	case "is_holiday":
		return float64(r.IsHoliday), true
	case "is_semester":
		return float64(r.IsSemester), true
	case "is_exam":
		return float64(r.IsExam), true
	case "minute":
		return float64(r.Minute), true
	case "hour":
		return float64(r.Hour), true
	case "day_of_week":
		return float64(r.DayOfWeek), true
	case "month":
		return float64(r.Month), true
	case "year":
		return float64(r.Year), true
	}
	return 0, false
}

// Categorical returns the value of a categorical column.
func (r Record) Categorical(column string) (value string, ok bool) {
	switch column {
	case "campus_building":
		return r.CampusBuilding, true
	case "category":
		return r.Category, true
	}
	return "", false
}

// IsCategorical reports whether column holds a categorical value.
func IsCategorical(column string) bool {
	return column == "campus_building" || column == "category"
}
