package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rewired-gh/landoracle/internal/config"
	"github.com/rewired-gh/landoracle/internal/estimator"
	"github.com/rewired-gh/landoracle/internal/logger"
	"github.com/rewired-gh/landoracle/internal/models"
	"github.com/rewired-gh/landoracle/internal/storage"
)

// exitNoMatch is the exit status when no historical record matches.
const exitNoMatch = 2

type estimateCommand struct {
	configPath *string
	district   string
	locality   string
	asJSON     bool
}

func registerEstimate(app *kingpin.Application, configPath *string) {
	c := &estimateCommand{configPath: configPath}
	cmd := app.Command("estimate", "estimate the price of land in a district and locality").
		Action(c.run)
	cmd.Arg("district", "district name").Required().StringVar(&c.district)
	cmd.Arg("locality", "locality name").Required().StringVar(&c.locality)
	cmd.Flag("json", "print the result as JSON").BoolVar(&c.asJSON)
}

func (c *estimateCommand) run(*kingpin.ParseContext) error {
	cfg := loadConfig(*c.configPath)
	ctx := context.Background()

	var opts []estimator.Option
	var store *storage.Storage
	if cfg.Storage.Enabled {
		var err error
		store, err = storage.New(cfg.Storage.DBPath, cfg.Storage.MaxEstimates)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer store.Close()
		opts = append(opts, estimator.WithRecorder(store))
	}

	svc := mustEstimator(ctx, cfg, opts...)
	res, err := svc.PredictPrice(ctx, c.district, c.locality)
	if models.IsNoMatch(err) {
		fmt.Fprintln(os.Stderr, err)
		if store != nil {
			store.Close()
		}
		os.Exit(exitNoMatch)
	}
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.RotateEstimates(ctx); err != nil {
			logger.Warn("Failed to rotate estimates: %v", err)
		}
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Print(formatResult(res))
	return nil
}

func formatResult(res *models.PredictionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "District:        %s\n", res.District)
	fmt.Fprintf(&sb, "Locality:        %s\n", res.Locality)
	fmt.Fprintf(&sb, "Estimated price: %s\n", humanize.CommafWithDigits(res.TotalPrice, 2))
	if res.PricePerCent != nil {
		fmt.Fprintf(&sb, "Price per cent:  %s\n", humanize.CommafWithDigits(*res.PricePerCent, 2))
	} else {
		sb.WriteString("Price per cent:  n/a\n")
	}
	fmt.Fprintf(&sb, "Average cents:   %s\n", humanize.FtoaWithDigits(res.AvgCents, 2))
	return sb.String()
}

type listCommand struct {
	configPath *string
	district   string
}

func registerDistricts(app *kingpin.Application, configPath *string) {
	c := &listCommand{configPath: configPath}
	app.Command("districts", "list known districts").
		Action(c.districts)
}

func registerLocalities(app *kingpin.Application, configPath *string) {
	c := &listCommand{configPath: configPath}
	cmd := app.Command("localities", "list known localities of a district").
		Action(c.localities)
	cmd.Arg("district", "district name").Required().StringVar(&c.district)
}

func (c *listCommand) districts(*kingpin.ParseContext) error {
	cfg := loadConfig(*c.configPath)
	for _, d := range mustEstimator(context.Background(), cfg).Districts() {
		fmt.Println(d)
	}
	return nil
}

func (c *listCommand) localities(*kingpin.ParseContext) error {
	cfg := loadConfig(*c.configPath)
	for _, l := range mustEstimator(context.Background(), cfg).Localities(c.district) {
		fmt.Println(l)
	}
	return nil
}

func mustEstimator(ctx context.Context, cfg *config.Config, opts ...estimator.Option) *estimator.Service {
	svc, err := estimator.New(ctx, cfg.Dataset, cfg.Models, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize estimator: %v", err)
	}
	return svc
}
