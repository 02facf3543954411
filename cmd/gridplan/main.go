// GridPlan: slicing-tree simulated annealing for scheduling tasks on a
// time by capacity grid.
//
// Build:
//   go build -o gridplan ./cmd/gridplan
//
// Examples:
//   gridplan run --units 2 --workers 12 --format pdf
//   gridplan sweep --units 3 --trials 3
//   gridplan run --catalog tasks.csv --workers 10 --days 30 --constraint none

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/piwi3910/GridPlan/cmd/gridplan/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := commands.Execute(ctx)
	stop()
	os.Exit(code)
}
