// Package features derives the fixed-schema learner input for a
// (district, locality) query from aggregate statistics over the dataset.
package features

import (
	"github.com/rewired-gh/landoracle/internal/models"
)

// Source is the read side of the dataset index the synthesizer needs.
type Source interface {
	RecordsFor(district, locality string) []models.HistoricalRecord
	RecordsForDistrict(district string) []models.HistoricalRecord
}

// Synthesize builds the feature vector for an already normalized district
// and locality, and returns it with the mean cents of the matched records.
//
// There is no district-only fallback: an empty exact match is reported as
// *models.NoMatchingRecordsError.
func Synthesize(src Source, district, locality string) (models.FeatureVector, float64, error) {
	subset := src.RecordsFor(district, locality)
	if len(subset) == 0 {
		return models.FeatureVector{}, 0, &models.NoMatchingRecordsError{District: district, Locality: locality}
	}

	var sumCents, sumPrice, sumArea, sumRatio float64
	for _, r := range subset {
		sumCents += r.Cents
		sumPrice += r.PriceNum
		sumArea += r.AreaSqft
		// Mean of per-record ratios, not ratio of means. The meta model
		// was trained on this statistic. Zero cents yields Inf/NaN.
		sumRatio += r.PriceNum / r.Cents
	}
	n := float64(len(subset))
	avgCents := sumCents / n

	distSubset := src.RecordsForDistrict(district)
	var distSum float64
	for _, r := range distSubset {
		distSum += r.PriceNum
	}

	fv := models.FeatureVector{
		District:              district,
		Locality:              locality,
		Location:              models.UnknownLocation,
		AreaSqft:              sumArea / n,
		Cents:                 avgCents,
		LocMeanPrice:          sumPrice / n,
		DistMeanPrice:         distSum / float64(len(distSubset)),
		LocCount:              len(subset),
		DistCount:             len(distSubset),
		PricePerCentFromPrice: sumRatio / n,
	}

	return fv, avgCents, nil
}
