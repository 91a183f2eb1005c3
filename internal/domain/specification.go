package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is the closed set of product categories sold in the store
type Category string

const (
	CategoryEarphone    Category = "Earphone"
	CategoryHeadphone   Category = "Headphone"
	CategoryWatch       Category = "Watch"
	CategorySmartphone  Category = "Smartphone"
	CategoryLaptop      Category = "Laptop"
	CategoryCamera      Category = "Camera"
	CategoryAccessories Category = "Accessories"
)

// Categories returns every category in display order
func Categories() []Category {
	return []Category{
		CategoryEarphone,
		CategoryHeadphone,
		CategoryWatch,
		CategorySmartphone,
		CategoryLaptop,
		CategoryCamera,
		CategoryAccessories,
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return len(SchemaFor(c)) > 0
}

// ParseCategory matches s case-insensitively against the known categories
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory.withMessage("unknown category %q", s)
}

// FieldType is the input/display type of a specification field
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

// SpecField describes one specification attribute of a category
type SpecField struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Unit    string    `json:"unit,omitempty"`
	Options []string  `json:"options,omitempty"`
}

var (
	connectivityOptions = []string{"Wired", "Bluetooth", "Wired & Bluetooth"}

	earphoneSchema = []SpecField{
		{Key: "type", Label: "Type", Type: FieldSelect, Options: []string{"In-Ear", "Earbuds", "Neckband"}},
		{Key: "connectivity", Label: "Connectivity", Type: FieldSelect, Options: connectivityOptions},
		{Key: "batteryLife", Label: "Battery Life", Type: FieldNumber, Unit: "hours"},
		{Key: "noiseCancellation", Label: "Noise Cancellation", Type: FieldBoolean},
		{Key: "waterResistance", Label: "Water Resistance", Type: FieldSelect, Options: []string{"None", "IPX4", "IPX5", "IPX7"}},
		{Key: "driverSize", Label: "Driver Size", Type: FieldNumber, Unit: "mm"},
	}

	headphoneSchema = []SpecField{
		{Key: "type", Label: "Type", Type: FieldSelect, Options: []string{"Over-Ear", "On-Ear"}},
		{Key: "connectivity", Label: "Connectivity", Type: FieldSelect, Options: connectivityOptions},
		{Key: "batteryLife", Label: "Battery Life", Type: FieldNumber, Unit: "hours"},
		{Key: "noiseCancellation", Label: "Noise Cancellation", Type: FieldBoolean},
		{Key: "driverSize", Label: "Driver Size", Type: FieldNumber, Unit: "mm"},
		{Key: "foldable", Label: "Foldable", Type: FieldBoolean},
	}

	watchSchema = []SpecField{
		{Key: "displaySize", Label: "Display Size", Type: FieldNumber, Unit: "inches"},
		{Key: "displayType", Label: "Display Type", Type: FieldSelect, Options: []string{"AMOLED", "OLED", "LCD"}},
		{Key: "batteryLife", Label: "Battery Life", Type: FieldNumber, Unit: "days"},
		{Key: "waterResistance", Label: "Water Resistance", Type: FieldSelect, Options: []string{"None", "3ATM", "5ATM", "10ATM"}},
		{Key: "gps", Label: "GPS", Type: FieldBoolean},
		{Key: "heartRateMonitor", Label: "Heart Rate Monitor", Type: FieldBoolean},
		{Key: "compatibility", Label: "Compatibility", Type: FieldSelect, Options: []string{"Android", "iOS", "Android & iOS"}},
	}

	smartphoneSchema = []SpecField{
		{Key: "displaySize", Label: "Display Size", Type: FieldNumber, Unit: "inches"},
		{Key: "processor", Label: "Processor", Type: FieldText},
		{Key: "ram", Label: "RAM", Type: FieldNumber, Unit: "GB"},
		{Key: "storage", Label: "Storage", Type: FieldNumber, Unit: "GB"},
		{Key: "rearCamera", Label: "Rear Camera", Type: FieldNumber, Unit: "MP"},
		{Key: "frontCamera", Label: "Front Camera", Type: FieldNumber, Unit: "MP"},
		{Key: "battery", Label: "Battery", Type: FieldNumber, Unit: "mAh"},
		{Key: "os", Label: "Operating System", Type: FieldSelect, Options: []string{"Android", "iOS"}},
		{Key: "fiveG", Label: "5G", Type: FieldBoolean},
	}

	laptopSchema = []SpecField{
		{Key: "displaySize", Label: "Display Size", Type: FieldNumber, Unit: "inches"},
		{Key: "processor", Label: "Processor", Type: FieldText},
		{Key: "ram", Label: "RAM", Type: FieldNumber, Unit: "GB"},
		{Key: "storage", Label: "Storage", Type: FieldNumber, Unit: "GB"},
		{Key: "storageType", Label: "Storage Type", Type: FieldSelect, Options: []string{"SSD", "HDD"}},
		{Key: "graphics", Label: "Graphics", Type: FieldText},
		{Key: "batteryLife", Label: "Battery Life", Type: FieldNumber, Unit: "hours"},
		{Key: "weight", Label: "Weight", Type: FieldNumber, Unit: "kg"},
		{Key: "os", Label: "Operating System", Type: FieldSelect, Options: []string{"Windows", "macOS", "Linux", "ChromeOS"}},
	}

	cameraSchema = []SpecField{
		{Key: "type", Label: "Type", Type: FieldSelect, Options: []string{"DSLR", "Mirrorless", "Point & Shoot", "Action"}},
		{Key: "sensorResolution", Label: "Sensor Resolution", Type: FieldNumber, Unit: "MP"},
		{Key: "sensorSize", Label: "Sensor Size", Type: FieldSelect, Options: []string{"Full Frame", "APS-C", "Micro Four Thirds", "1-inch"}},
		{Key: "videoResolution", Label: "Video Resolution", Type: FieldSelect, Options: []string{"1080p", "4K", "6K", "8K"}},
		{Key: "opticalZoom", Label: "Optical Zoom", Type: FieldNumber, Unit: "x"},
		{Key: "weight", Label: "Weight", Type: FieldNumber, Unit: "g"},
		{Key: "wifi", Label: "Wi-Fi", Type: FieldBoolean},
	}

	accessoriesSchema = []SpecField{
		{Key: "type", Label: "Type", Type: FieldSelect, Options: []string{"Charger", "Cable", "Case", "Power Bank", "Stand", "Other"}},
		{Key: "compatibility", Label: "Compatibility", Type: FieldText},
		{Key: "material", Label: "Material", Type: FieldText},
		{Key: "color", Label: "Color", Type: FieldText},
	}
)

// SchemaFor returns the specification fields of a category, or nil for an unknown category.
// The returned slice is shared and must not be modified.
func SchemaFor(c Category) []SpecField {
	switch c {
	case CategoryEarphone:
		return earphoneSchema
	case CategoryHeadphone:
		return headphoneSchema
	case CategoryWatch:
		return watchSchema
	case CategorySmartphone:
		return smartphoneSchema
	case CategoryLaptop:
		return laptopSchema
	case CategoryCamera:
		return cameraSchema
	case CategoryAccessories:
		return accessoriesSchema
	}
	return nil
}

// MissingSpecValue is shown when a product has no value for a field
const MissingSpecValue = "N/A"

// FormatSpecValue renders a specification value for display
func FormatSpecValue(f SpecField, v interface{}) string {
	if v == nil {
		return MissingSpecValue
	}

	switch f.Type {
	case FieldBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	case FieldNumber:
		if n, ok := toFloat(v); ok {
			s := strconv.FormatFloat(n, 'f', -1, 64)
			if f.Unit != "" {
				s += " " + f.Unit
			}
			return s
		}
	}

	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return MissingSpecValue
	}
	return s
}

// ComparisonRow is one line of a side-by-side product comparison
type ComparisonRow struct {
	Field  SpecField `json:"field"`
	Values []string  `json:"values"`
}

// ComparisonRows lays out the specifications of products side by side. Fields are the union
// of each product's category schema in first-seen order; a product whose category lacks a
// field shows MissingSpecValue.
func ComparisonRows(products ...*Product) []ComparisonRow {
	seen := make(map[string]bool)
	var fields []SpecField
	for _, p := range products {
		for _, f := range SchemaFor(p.Category) {
			if seen[f.Key] {
				continue
			}
			seen[f.Key] = true
			fields = append(fields, f)
		}
	}

	rows := make([]ComparisonRow, 0, len(fields))
	for _, f := range fields {
		row := ComparisonRow{Field: f, Values: make([]string, len(products))}
		for i, p := range products {
			var v interface{}
			if hasField(p.Category, f.Key) {
				v = p.Specifications[f.Key]
			}
			row.Values[i] = FormatSpecValue(f, v)
		}
		rows = append(rows, row)
	}
	return rows
}

// ValidateSpecifications checks specs against the schema of c. Fields may be omitted,
// but every key present must be known and carry a value of the field's type.
func ValidateSpecifications(c Category, specs map[string]interface{}) error {
	schema := SchemaFor(c)
	if schema == nil {
		return ErrInvalidCategory
	}

	byKey := make(map[string]SpecField, len(schema))
	for _, f := range schema {
		byKey[f.Key] = f
	}

	for key, v := range specs {
		f, ok := byKey[key]
		if !ok {
			return ErrInvalidSpecification.withMessage("unknown specification %q for category %s", key, c)
		}
		if v == nil {
			continue
		}
		if err := checkFieldValue(f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldValue(f SpecField, v interface{}) error {
	switch f.Type {
	case FieldNumber:
		if _, ok := toFloat(v); !ok {
			return ErrInvalidSpecification.withMessage("%s must be a number", f.Label)
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return ErrInvalidSpecification.withMessage("%s must be true or false", f.Label)
		}
	case FieldText:
		if _, ok := v.(string); !ok {
			return ErrInvalidSpecification.withMessage("%s must be text", f.Label)
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok || !containsString(f.Options, s) {
			return ErrInvalidSpecification.withMessage("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
		}
	}
	return nil
}

func hasField(c Category, key string) bool {
	for _, f := range SchemaFor(c) {
		if f.Key == key {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// toFloat accepts the numeric types produced by JSON and BSON decoding
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
