// Package main provides the better-bahn CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/logic-arts-official/Better-Bahn/board"
	"github.com/spf13/cobra"
)

// boardCmd represents the board command
var boardCmd = &cobra.Command{
	Use:   "board [station]",
	Short: "Show a live departure board for a station",
	Long: `Show the current departures of a Deutsche Bahn station, with live
delays, platform changes and cancellations.

The station can be given as a name ("Berlin Hbf") or as an EVA number
("8011160"). With --demo a board with example data is shown, which
works without an internet connection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		station := ""
		if len(args) > 0 {
			station = args[0]
		}
		return runBoard(ctx, station)
	},
}

// boardFlags holds the flags for the board command
type boardFlags struct {
	when        string
	duration    int
	results     int
	maxDisplay  int
	delayedOnly bool
	minDelay    int
	status      string
	demo        bool
}

var boardOpts boardFlags

func init() {
	rootCmd.AddCommand(boardCmd)

	boardCmd.Flags().StringVar(&boardOpts.when, "when", "", "Start of the departure window as RFC3339 timestamp (default: now)")
	boardCmd.Flags().IntVar(&boardOpts.duration, "duration", 120, "Departure window in minutes")
	boardCmd.Flags().IntVar(&boardOpts.results, "results", 20, "Maximum number of departures to fetch")
	boardCmd.Flags().IntVar(&boardOpts.maxDisplay, "max-display", 10, "Maximum number of departures to display")
	boardCmd.Flags().BoolVar(&boardOpts.delayedOnly, "delayed-only", false, "Show delayed trains only")
	boardCmd.Flags().IntVar(&boardOpts.minDelay, "min-delay", 5, "Minimum delay in minutes for --delayed-only")
	boardCmd.Flags().StringVar(&boardOpts.status, "status", "", "Filter by status: on-time, delayed, cancelled, unknown")
	boardCmd.Flags().BoolVar(&boardOpts.demo, "demo", false, "Demo mode with example data")
}

func runBoard(ctx context.Context, station string) error {
	fmt.Println("Better-Bahn Abfahrtstafel")
	fmt.Println(strings.Repeat("=", 50))

	if boardOpts.demo {
		if station == "" {
			station = "Berlin Hbf"
		}
		fmt.Println("Demo-Modus aktiviert - Zeige Beispieldaten")
		return showBoard(board.Demo(station))
	}
	if station == "" {
		return errors.New("station name or EVA number required, or use --demo")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	svc := board.NewService(a.api, board.WithLogger(a.log.With().Str("component", "board").Logger()))

	stationID := station
	if !isDigits(station) {
		fmt.Printf("Suche Station: %s...\n", station)
		loc, err := svc.FindStation(ctx, station)
		if err != nil {
			return err
		}
		stationID = loc.ID
		fmt.Printf("Station gefunden: %s (EVA: %s)\n", loc.Name, loc.ID)
	}

	var when time.Time
	if boardOpts.when != "" {
		when, err = time.Parse(time.RFC3339, boardOpts.when)
		if err != nil {
			return fmt.Errorf("invalid --when value: %w", err)
		}
	}

	fmt.Printf("\nLade Abfahrtsdaten für Station %s...\n", stationID)
	b, err := svc.Load(ctx, stationID, board.Params{
		When:     when,
		Duration: boardOpts.duration,
		Results:  boardOpts.results,
	})
	if err != nil {
		return err
	}
	return showBoard(b)
}

// showBoard applies the display filters and renders the board to stdout.
func showBoard(b *board.Board) error {
	if boardOpts.delayedOnly {
		b.Departures = b.Delayed(boardOpts.minDelay)
		if len(b.Departures) == 0 {
			fmt.Printf("Keine Verspätungen über %d Minuten gefunden.\n", boardOpts.minDelay)
			return nil
		}
	}
	if boardOpts.status != "" {
		status, err := statusFromFlag(boardOpts.status)
		if err != nil {
			return err
		}
		b.Departures = b.ByStatus(status)
		if len(b.Departures) == 0 {
			fmt.Printf("Keine Abfahrten mit Status %q gefunden.\n", status)
			return nil
		}
	}
	fmt.Println()
	fmt.Println(board.Render(b, boardOpts.maxDisplay))
	return nil
}

func statusFromFlag(s string) (board.Status, error) {
	switch strings.ToLower(s) {
	case "on-time", "ontime":
		return board.StatusOnTime, nil
	case "delayed":
		return board.StatusDelayed, nil
	case "cancelled":
		return board.StatusCancelled, nil
	case "unknown":
		return board.StatusUnknown, nil
	}
	return 0, fmt.Errorf("unknown status %q, must be one of on-time, delayed, cancelled, unknown", s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
