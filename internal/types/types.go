package types

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
)

// Layouts accepted for the date and time inputs
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// PredictRequest represents the request structure for the predict endpoint.
// Every field is a pointer so that an absent field is reported as missing
// instead of silently taking its zero value.
type PredictRequest struct {
	Date                *string  `json:"date" binding:"required,datetime=2006-01-02" example:"2018-01-01"`
	Time                *string  `json:"time" binding:"required,datetime=15:04" example:"00:15"`
	CampusBuilding      *string  `json:"campus_building" binding:"required,campus_building" example:"115"`
	Category            *string  `json:"category" binding:"required,building_category" example:"mixed use"`
	BuiltYear           *int     `json:"built_year" binding:"required,min=1899,max=2019" example:"1967"`
	GrossFloorArea      *float64 `json:"gross_floor_area" binding:"required,min=4250,max=5459749" example:"145558"`
	RoomArea            *float64 `json:"room_area" binding:"required,min=253,max=15176" example:"1788"`
	Capacity            *int     `json:"capacity" binding:"required,min=0,max=1595" example:"79"`
	ApparentTemperature *float64 `json:"apparent_temperature" binding:"required,min=-7,max=42.4" example:"16.0"`
	AirTemperature      *float64 `json:"air_temperature" binding:"required,min=-3,max=44.4" example:"15.9"`
	DewPointTemperature *float64 `json:"dew_point_temperature" binding:"required,min=-6,max=23.6" example:"13.6"`
	RelativeHumidity    *int     `json:"relative_humidity" binding:"required,min=7,max=100" example:"86"`
	WindSpeed           *float64 `json:"wind_speed" binding:"required,min=0,max=63" example:"5.4"`
	WindDirection       *int     `json:"wind_direction" binding:"required,min=0,max=359" example:"134"`
	IsHoliday           *int     `json:"is_holiday" binding:"required,oneof=0 1" example:"0"`
	IsSemester          *int     `json:"is_semester" binding:"required,oneof=0 1" example:"0"`
	IsExam              *int     `json:"is_exam" binding:"required,oneof=0 1" example:"0"`
}

// ToInput converts a validated request into assembler input.
// The date and time are combined into a single UTC timestamp.
func (r *PredictRequest) ToInput() (features.Input, error) {
	if r.Date == nil || r.Time == nil {
		return features.Input{}, fmt.Errorf("date and time are required")
	}
	date, err := time.Parse(DateLayout, *r.Date)
	if err != nil {
		return features.Input{}, fmt.Errorf("parse date %q: %w", *r.Date, err)
	}
	clock, err := time.Parse(TimeLayout, *r.Time)
	if err != nil {
		return features.Input{}, fmt.Errorf("parse time %q: %w", *r.Time, err)
	}

	return features.Input{
		CampusBuilding:      deref(r.CampusBuilding),
		Category:            deref(r.Category),
		BuiltYear:           deref(r.BuiltYear),
		GrossFloorArea:      deref(r.GrossFloorArea),
		RoomArea:            deref(r.RoomArea),
		Capacity:            deref(r.Capacity),
		ApparentTemperature: deref(r.ApparentTemperature),
		AirTemperature:      deref(r.AirTemperature),
		DewPointTemperature: deref(r.DewPointTemperature),
		RelativeHumidity:    float64(deref(r.RelativeHumidity)),
		WindSpeed:           deref(r.WindSpeed),
		WindDirection:       deref(r.WindDirection),
		IsHoliday:           deref(r.IsHoliday),
		IsSemester:          deref(r.IsSemester),
		IsExam:              deref(r.IsExam),
		Timestamp:           features.Combine(date, clock),
	}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// DefaultPredictRequest returns a request filled with the form defaults
func DefaultPredictRequest() PredictRequest {
	num := func(name string) float64 {
		b, _ := features.BoundFor(name)
		return b.Default
	}
	integer := func(name string) *int {
		v := int(num(name))
		return &v
	}
	float := func(name string) *float64 {
		v := num(name)
		return &v
	}
	str := func(s string) *string { return &s }
	off := func() *int {
		v := 0
		return &v
	}

	return PredictRequest{
		Date:                str(features.DefaultDate),
		Time:                str(features.DefaultTime),
		CampusBuilding:      str(features.CampusBuildings()[0]),
		Category:            str(features.DefaultCategory),
		BuiltYear:           integer("built_year"),
		GrossFloorArea:      float("gross_floor_area"),
		RoomArea:            float("room_area"),
		Capacity:            integer("capacity"),
		ApparentTemperature: float("apparent_temperature"),
		AirTemperature:      float("air_temperature"),
		DewPointTemperature: float("dew_point_temperature"),
		RelativeHumidity:    integer("relative_humidity"),
		WindSpeed:           float("wind_speed"),
		WindDirection:       integer("wind_direction"),
		IsHoliday:           off(),
		IsSemester:          off(),
		IsExam:              off(),
	}
}

// FormValues renders the set fields of r as form input values keyed by
// their JSON names
func (r PredictRequest) FormValues() map[string]string {
	out := map[string]string{}
	v := reflect.ValueOf(r)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.IsNil() {
			continue
		}
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		switch elem := field.Elem(); elem.Kind() {
		case reflect.String:
			out[name] = elem.String()
		case reflect.Int:
			out[name] = strconv.FormatInt(elem.Int(), 10)
		case reflect.Float64:
			out[name] = strconv.FormatFloat(elem.Float(), 'f', -1, 64)
		}
	}
	return out
}

// InputSummary echoes the request in readable form
type InputSummary struct {
	DateTime    string `json:"date_time"`
	BuildingID  string `json:"building_id"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
	Conditions  string `json:"conditions"`
}

// Summarize renders the readable echo of in
func Summarize(in features.Input) InputSummary {
	return InputSummary{
		DateTime:    fmt.Sprintf("%s at %s", in.Timestamp.Format(DateLayout), in.Timestamp.Format(TimeLayout)),
		BuildingID:  in.CampusBuilding,
		Temperature: fmt.Sprintf("Apparent %g°C, Air %g°C", in.ApparentTemperature, in.AirTemperature),
		Humidity:    fmt.Sprintf("%g%%", in.RelativeHumidity),
		Wind:        fmt.Sprintf("%g km/h from %d°", in.WindSpeed, in.WindDirection),
		Conditions: fmt.Sprintf("%s, %s, %s",
			pick(in.IsHoliday, "Holiday", "Not a holiday"),
			pick(in.IsSemester, "Semester", "No semester"),
			pick(in.IsExam, "Exam period", "No exams")),
	}
}

func pick(flag int, yes, no string) string {
	if flag != 0 {
		return yes
	}
	return no
}

// PredictResponse represents the response structure for the predict endpoint
type PredictResponse struct {
	Prediction    float64                    `json:"prediction" example:"123.456"`
	Formatted     string                     `json:"formatted" example:"123.456"`
	Unit          string                     `json:"unit" example:"kWh"`
	Predictor     string                     `json:"predictor" example:"linear"`
	Record        features.Record            `json:"record"`
	Contributions analysis.ContributionTable `json:"contributions"`
	Inputs        InputSummary               `json:"inputs"`
	RequestID     string                     `json:"request_id,omitempty"`
	Timestamp     time.Time                  `json:"timestamp"`
}

// HealthResponse represents the response structure for the health endpoint
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`
	Predictor string    `json:"predictor" example:"linear"`
	Version   string    `json:"version" example:"2024-05"`
	RateLimit string    `json:"rate_limit" example:"memory"`
	Timestamp time.Time `json:"timestamp"`
}
