package models

// FeatureKind tells a learner how to read a schema column.
type FeatureKind int

const (
	// Categorical columns hold raw string labels.
	Categorical FeatureKind = iota
	// Numeric columns hold continuous values.
	Numeric
)

// Feature describes one column of the learner input schema.
type Feature struct {
	Name string
	Kind FeatureKind
}

// Schema indexes, in training order.
const (
	FeatDistrict = iota
	FeatLocality
	FeatLocation
	FeatAreaSqft
	FeatCents
	FeatLocMeanPrice
	FeatDistMeanPrice
	FeatLocCount
	FeatDistCount
	FeatPricePerCentFromPrice
)

// UnknownLocation is the location label used for every synthesized vector.
const UnknownLocation = "Unknown"

// FeatureSchema is the exact column layout the base learners were trained
// against. Model artifacts must declare the same names in the same order.
var FeatureSchema = []Feature{
	{Name: "district", Kind: Categorical},
	{Name: "locality", Kind: Categorical},
	{Name: "location", Kind: Categorical},
	{Name: "area_sqft", Kind: Numeric},
	{Name: "cents", Kind: Numeric},
	{Name: "loc_mean_price", Kind: Numeric},
	{Name: "dist_mean_price", Kind: Numeric},
	{Name: "loc_count", Kind: Numeric},
	{Name: "dist_count", Kind: Numeric},
	{Name: "price_per_cent_from_price", Kind: Numeric},
}

// FeatureNames returns the schema column names in order.
func FeatureNames() []string {
	names := make([]string, len(FeatureSchema))
	for i, f := range FeatureSchema {
		names[i] = f.Name
	}
	return names
}

// FeatureVector is the per-query learner input derived from the dataset.
type FeatureVector struct {
	District              string  `json:"district"`
	Locality              string  `json:"locality"`
	Location              string  `json:"location"`
	AreaSqft              float64 `json:"area_sqft"`
	Cents                 float64 `json:"cents"`
	LocMeanPrice          float64 `json:"loc_mean_price"`
	DistMeanPrice         float64 `json:"dist_mean_price"`
	LocCount              int     `json:"loc_count"`
	DistCount             int     `json:"dist_count"`
	PricePerCentFromPrice float64 `json:"price_per_cent_from_price"`
}

// Categorical returns the label stored at schema index i.
// ok is false when i is not a categorical column.
func (f FeatureVector) Categorical(i int) (string, bool) {
	switch i {
	case FeatDistrict:
		return f.District, true
	case FeatLocality:
		return f.Locality, true
	case FeatLocation:
		return f.Location, true
	}
	return "", false
}

// Numeric returns the value stored at schema index i.
// ok is false when i is not a numeric column.
func (f FeatureVector) Numeric(i int) (float64, bool) {
	switch i {
	case FeatAreaSqft:
		return f.AreaSqft, true
	case FeatCents:
		return f.Cents, true
	case FeatLocMeanPrice:
		return f.LocMeanPrice, true
	case FeatDistMeanPrice:
		return f.DistMeanPrice, true
	case FeatLocCount:
		return float64(f.LocCount), true
	case FeatDistCount:
		return float64(f.DistCount), true
	case FeatPricePerCentFromPrice:
		return f.PricePerCentFromPrice, true
	}
	return 0, false
}
