package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rewired-gh/landoracle/internal/logger"
	"github.com/rewired-gh/landoracle/internal/models"
	"github.com/rewired-gh/landoracle/internal/storage"
)

type historyCommand struct {
	configPath *string
	limit      int
}

func registerHistory(app *kingpin.Application, configPath *string) {
	c := &historyCommand{configPath: configPath}
	cmd := app.Command("history", "show recently served estimates").
		Action(c.run)
	cmd.Flag("limit", "number of estimates to show").
		Default("20").
		IntVar(&c.limit)
}

func (c *historyCommand) run(*kingpin.ParseContext) error {
	cfg := loadConfig(*c.configPath)

	store, err := storage.New(cfg.Storage.DBPath, cfg.Storage.MaxEstimates)
	if err != nil {
		logger.Fatal("Failed to open estimate history: %v", err)
	}
	defer store.Close()

	estimates, err := store.RecentEstimates(context.Background(), c.limit)
	if err != nil {
		return err
	}
	if len(estimates) == 0 {
		fmt.Println("No estimates recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tDISTRICT\tLOCALITY\tTOTAL\tPER CENT")
	for _, e := range estimates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(e.CreatedAt), e.District, e.Locality,
			humanize.CommafWithDigits(e.TotalPrice, 2), perCent(e))
	}
	return w.Flush()
}

func perCent(e models.Estimate) string {
	if e.PricePerCent == nil {
		return "n/a"
	}
	return humanize.CommafWithDigits(*e.PricePerCent, 2)
}
