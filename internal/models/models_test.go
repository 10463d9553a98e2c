package models

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestHistoricalRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  HistoricalRecord
		wantErr bool
	}{
		{
			name:   "valid record",
			record: HistoricalRecord{District: "kollam", Locality: "karunagappally", AreaSqft: 2000, Cents: 5, PriceNum: 500000},
		},
		{
			name:   "zero cents accepted",
			record: HistoricalRecord{District: "kollam", Locality: "karunagappally", Cents: 0, PriceNum: 100},
		},
		{
			name:    "empty district",
			record:  HistoricalRecord{Locality: "karunagappally", Cents: 5},
			wantErr: true,
		},
		{
			name:    "empty locality",
			record:  HistoricalRecord{District: "kollam", Cents: 5},
			wantErr: true,
		},
		{
			name:    "negative area",
			record:  HistoricalRecord{District: "kollam", Locality: "kollam", AreaSqft: -1, Cents: 5},
			wantErr: true,
		},
		{
			name:    "negative cents",
			record:  HistoricalRecord{District: "kollam", Locality: "kollam", Cents: -5},
			wantErr: true,
		},
		{
			name:    "negative price",
			record:  HistoricalRecord{District: "kollam", Locality: "kollam", Cents: 5, PriceNum: -1},
			wantErr: true,
		},
		{
			name:    "nan price",
			record:  HistoricalRecord{District: "kollam", Locality: "kollam", Cents: 5, PriceNum: math.NaN()},
			wantErr: true,
		},
		{
			name:    "infinite area",
			record:  HistoricalRecord{District: "kollam", Locality: "kollam", AreaSqft: math.Inf(1), Cents: 5},
			wantErr: true,
		},
		{
			name:    "negative infinite cents",
			record:  HistoricalRecord{District: "kollam", Locality: "kollam", Cents: math.Inf(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ernakulam", "ernakulam"},
		{" Ernakulam ", "ernakulam"},
		{"\tNORTH Paravur\n", "north paravur"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestFeatureVectorAccessors(t *testing.T) {
	fv := FeatureVector{
		District:              "kollam",
		Locality:              "karunagappally",
		Location:              UnknownLocation,
		AreaSqft:              2000,
		Cents:                 5,
		LocMeanPrice:          500000,
		DistMeanPrice:         450000,
		LocCount:              1,
		DistCount:             3,
		PricePerCentFromPrice: 100000,
	}

	if len(FeatureSchema) != 10 {
		t.Fatalf("Expected 10 schema columns, got %d", len(FeatureSchema))
	}

	wantNumeric := map[int]float64{
		FeatAreaSqft:              2000,
		FeatCents:                 5,
		FeatLocMeanPrice:          500000,
		FeatDistMeanPrice:         450000,
		FeatLocCount:              1,
		FeatDistCount:             3,
		FeatPricePerCentFromPrice: 100000,
	}
	wantCategorical := map[int]string{
		FeatDistrict: "kollam",
		FeatLocality: "karunagappally",
		FeatLocation: "Unknown",
	}

	for i, f := range FeatureSchema {
		switch f.Kind {
		case Numeric:
			v, ok := fv.Numeric(i)
			if !ok || v != wantNumeric[i] {
				t.Errorf("Numeric(%d) [%s] = %v, %v; expected %v", i, f.Name, v, ok, wantNumeric[i])
			}
			if _, ok := fv.Categorical(i); ok {
				t.Errorf("Categorical(%d) [%s] should not be ok", i, f.Name)
			}
		case Categorical:
			v, ok := fv.Categorical(i)
			if !ok || v != wantCategorical[i] {
				t.Errorf("Categorical(%d) [%s] = %q, %v; expected %q", i, f.Name, v, ok, wantCategorical[i])
			}
			if _, ok := fv.Numeric(i); ok {
				t.Errorf("Numeric(%d) [%s] should not be ok", i, f.Name)
			}
		}
	}

	names := FeatureNames()
	if names[0] != "district" || names[9] != "price_per_cent_from_price" {
		t.Errorf("Unexpected schema order: %v", names)
	}
}

func TestEstimateValidate(t *testing.T) {
	now := time.Now()

	valid := Estimate{ID: "e-1", District: "kollam", Locality: "karunagappally", TotalPrice: 1, AvgCents: 5, CreatedAt: now}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid estimate, got %v", err)
	}

	future := valid
	future.CreatedAt = now.Add(time.Hour)
	if err := future.Validate(); err == nil {
		t.Error("Expected error for future created_at")
	}

	noID := valid
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Error("Expected error for empty ID")
	}
}

func TestErrorTypes(t *testing.T) {
	base := errors.New("boom")

	dl := fmt.Errorf("startup: %w", &DataLoadError{Path: "land.csv", Err: base})
	var dle *DataLoadError
	if !errors.As(dl, &dle) || !errors.Is(dl, base) {
		t.Errorf("DataLoadError should unwrap to its cause: %v", dl)
	}

	ml := &ModelLoadError{Model: "catboost", Path: "cb.json", Err: base}
	if !errors.Is(ml, base) {
		t.Errorf("ModelLoadError should unwrap to its cause: %v", ml)
	}

	nm := fmt.Errorf("predict: %w", &NoMatchingRecordsError{District: "kollam", Locality: "nowhere"})
	if !IsNoMatch(nm) {
		t.Error("IsNoMatch should detect a wrapped NoMatchingRecordsError")
	}
	if IsNoMatch(dl) {
		t.Error("IsNoMatch should not match a DataLoadError")
	}

	want := "no records found for district='kollam', locality='nowhere'"
	if got := (&NoMatchingRecordsError{District: "kollam", Locality: "nowhere"}).Error(); got != want {
		t.Errorf("Error() = %q, expected %q", got, want)
	}
}
