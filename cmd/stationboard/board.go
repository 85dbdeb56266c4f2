package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"stationboard.org/internal/logging"
	"stationboard.org/internal/models"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Prints the current departures and arrivals",
	Args:  cobra.NoArgs,
	RunE:  printBoardCmd,
}

var asJSON bool

func init() {
	boardCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print the board as JSON")
}

func printBoardCmd(cmd *cobra.Command, args []string) (err error) {
	application, err := loadApplication()
	if err != nil {
		return err
	}

	b, err := application.Board.Build(cmd.Context())
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer logging.HandleDeferredError(&err, out.Flush, application.Logger, "flush_stdout")

	if asJSON {
		return writeBoardJSON(out, b)
	}
	return writeBoardTables(out, b, application.Now())
}

func writeBoardJSON(w io.Writer, b *models.Board) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// writeBoardTables prints the board the way the page lays it out.
func writeBoardTables(w io.Writer, b *models.Board, now time.Time) error {
	if _, err := fmt.Fprintf(w, "%s  %s\n\nDepartures\n", b.Stop.Name, models.DisplayTime(now)); err != nil {
		return err
	}

	deps := table.New("Line", "Destination", "Departure", "Status").WithWriter(w)
	for _, e := range b.Departures.Entries() {
		deps.AddRow(e.Value.LongName, e.Value.Destination, e.Value.Departure, e.Value.TripStatus)
	}
	deps.Print()

	if _, err := fmt.Fprint(w, "\nArrivals\n"); err != nil {
		return err
	}

	arrs := table.New("Line", "Arrival", "Status").WithWriter(w)
	for _, e := range b.Arrivals.Entries() {
		arrs.AddRow(e.Value.LineName, e.Value.Arrival, e.Value.TripStatus)
	}
	arrs.Print()
	return nil
}
