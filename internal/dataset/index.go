// Package dataset holds the read-only index over the historical valuation
// table. The index is built once by one of the loaders and is safe for
// concurrent readers afterwards: nothing mutates it after construction.
package dataset

import (
	"sort"

	"github.com/rewired-gh/landoracle/internal/models"
)

// Index answers district and locality lookups over the loaded records.
type Index struct {
	records []models.HistoricalRecord

	// Offsets into records, keyed by normalized district and by
	// district+locality.
	byDistrict map[string][]int
	byLocality map[localityKey][]int

	districts  []string
	localities map[string][]string
}

type localityKey struct {
	district string
	locality string
}

// NewIndex builds an index over records. District and locality are
// normalized; the caller's slice is not retained.
func NewIndex(records []models.HistoricalRecord) *Index {
	idx := &Index{
		records:    make([]models.HistoricalRecord, len(records)),
		byDistrict: make(map[string][]int),
		byLocality: make(map[localityKey][]int),
		localities: make(map[string][]string),
	}

	seenLocality := make(map[localityKey]bool)
	for i, r := range records {
		r.District = models.NormalizeKey(r.District)
		r.Locality = models.NormalizeKey(r.Locality)
		idx.records[i] = r

		key := localityKey{district: r.District, locality: r.Locality}
		if _, ok := idx.byDistrict[r.District]; !ok {
			idx.districts = append(idx.districts, r.District)
		}
		idx.byDistrict[r.District] = append(idx.byDistrict[r.District], i)
		idx.byLocality[key] = append(idx.byLocality[key], i)

		if !seenLocality[key] {
			seenLocality[key] = true
			idx.localities[r.District] = append(idx.localities[r.District], r.Locality)
		}
	}

	sort.Strings(idx.districts)
	for _, locs := range idx.localities {
		sort.Strings(locs)
	}

	return idx
}

// Len returns the number of records in the index.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Districts returns the sorted distinct normalized districts.
func (idx *Index) Districts() []string {
	out := make([]string, len(idx.districts))
	copy(out, idx.districts)
	return out
}

// Localities returns the sorted distinct localities of district. An unknown
// or empty district yields an empty slice, not an error.
func (idx *Index) Localities(district string) []string {
	locs := idx.localities[models.NormalizeKey(district)]
	out := make([]string, len(locs))
	copy(out, locs)
	return out
}

// RecordsForDistrict returns every record of district, in dataset order.
func (idx *Index) RecordsForDistrict(district string) []models.HistoricalRecord {
	return idx.collect(idx.byDistrict[models.NormalizeKey(district)])
}

// RecordsFor returns every record matching both district and locality
// exactly after normalization, in dataset order.
func (idx *Index) RecordsFor(district, locality string) []models.HistoricalRecord {
	key := localityKey{
		district: models.NormalizeKey(district),
		locality: models.NormalizeKey(locality),
	}
	return idx.collect(idx.byLocality[key])
}

func (idx *Index) collect(offsets []int) []models.HistoricalRecord {
	out := make([]models.HistoricalRecord, len(offsets))
	for i, off := range offsets {
		out[i] = idx.records[off]
	}
	return out
}
