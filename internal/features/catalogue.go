package features

// campusBuildings lists the building codes seen in the training data.
// Duplicates in the export are collapsed by Catalogue.
var campusBuildings = []string{
	"14", "16", "115", "116", "117", "118", "120", "123", "125", "126",
	"127", "129", "130", "131", "132", "133", "134", "135", "136", "137",
	"138", "140", "142", "144", "149", "151", "154", "156", "158", "159",
	"160", "161", "162", "163", "164", "150", "139", "17", "124", "157",
	"28", "29", "127", "125", "120", "247", "248", "322", "352", "353",
	"210", "211", "212", "213", "214",
}

// Categories are the building usage categories known to the model.
var Categories = []string{
	"mixed use",
	"other",
	"residence",
	"office",
	"teaching",
	"sport",
	"library",
}

// Bound describes the accepted range of one numeric input.
type Bound struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Bounds lists the numeric inputs in form order.
var Bounds = []Bound{
	{Name: "built_year", Label: "Built Year", Min: 1899, Max: 2019, Default: 1967, Step: 1},
	{Name: "gross_floor_area", Label: "Gross Floor Area", Unit: "ft²", Min: 4250, Max: 5459749, Default: 145558, Step: 1},
	{Name: "room_area", Label: "Room Area", Unit: "ft²", Min: 253, Max: 15176, Default: 1788, Step: 1},
	{Name: "capacity", Label: "Capacity", Unit: "people", Min: 0, Max: 1595, Default: 79, Step: 1},
	{Name: "apparent_temperature", Label: "Apparent Temperature", Unit: "°C", Min: -7.0, Max: 42.4, Default: 16.0, Step: 0.1},
	{Name: "air_temperature", Label: "Air Temperature", Unit: "°C", Min: -3.0, Max: 44.4, Default: 15.9, Step: 0.1},
	{Name: "dew_point_temperature", Label: "Dew Point Temperature", Unit: "°C", Min: -6.0, Max: 23.6, Default: 13.6, Step: 0.1},
	{Name: "relative_humidity", Label: "Relative Humidity", Unit: "%", Min: 7, Max: 100, Default: 86, Step: 1},
	{Name: "wind_speed", Label: "Wind Speed", Unit: "km/h", Min: 0.0, Max: 63.0, Default: 5.4, Step: 0.1},
	{Name: "wind_direction", Label: "Wind Direction", Unit: "degrees", Min: 0, Max: 359, Default: 134, Step: 1},
}

// Flag describes a binary indicator input.
type Flag struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Flags lists the 0/1 context indicators in form order.
var Flags = []Flag{
	{Name: "is_holiday", Label: "Is it a Holiday?"},
	{Name: "is_semester", Label: "Is it a Semester?"},
	{Name: "is_exam", Label: "Is it an Exam period?"},
}

// Defaults for the date and time inputs.
const (
	DefaultDate     = "2018-01-01"
	DefaultTime     = "00:15"
	DefaultCategory = "mixed use"
)

// CatalogueData is the full description of the input surface.
type CatalogueData struct {
	CampusBuildings []string `json:"campus_buildings"`
	Categories      []string `json:"categories"`
	Bounds          []Bound  `json:"bounds"`
	Flags           []Flag   `json:"flags"`
	DefaultDate     string   `json:"default_date"`
	DefaultTime     string   `json:"default_time"`
	DefaultCategory string   `json:"default_category"`
}

// Catalogue returns the enumerations and bounds of every input.
func Catalogue() CatalogueData {
	return CatalogueData{
		CampusBuildings: CampusBuildings(),
		Categories:      append([]string(nil), Categories...),
		Bounds:          append([]Bound(nil), Bounds...),
		Flags:           append([]Flag(nil), Flags...),
		DefaultDate:     DefaultDate,
		DefaultTime:     DefaultTime,
		DefaultCategory: DefaultCategory,
	}
}

// CampusBuildings returns the known building codes in first-seen order
// without duplicates.
func CampusBuildings() []string {
	seen := make(map[string]bool, len(campusBuildings))
	out := make([]string, 0, len(campusBuildings))
	for _, code := range campusBuildings {
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// IsCampusBuilding reports whether code is a known building code.
func IsCampusBuilding(code string) bool {
	for _, known := range campusBuildings {
		if known == code {
			return true
		}
	}
	return false
}

// IsCategory reports whether name is a known building category.
func IsCategory(name string) bool {
	for _, known := range Categories {
		if known == name {
			return true
		}
	}
	return false
}

// BoundFor returns the bound of a numeric input.
func BoundFor(name string) (Bound, bool) {
	for _, b := range Bounds {
		if b.Name == name {
			return b, true
		}
	}
	return Bound{}, false
}
