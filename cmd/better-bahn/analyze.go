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

	"github.com/logic-arts-official/Better-Bahn/masterdata"
	"github.com/logic-arts-official/Better-Bahn/split"
	"github.com/logic-arts-official/Better-Bahn/transport"
	"github.com/logic-arts-official/Better-Bahn/vendo"
	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <bahn.de-url>",
	Short: "Find cheaper split tickets for a bahn.de connection",
	Long: `Analyze a bahn.de journey link and search for a combination of
partial tickets that is cheaper than the direct fare.

Both short share links (with a vbid parameter) and long search links
are accepted. Every stopover of the connection is priced against every
other one, then the cheapest chain of tickets covering the whole trip
is reported together with booking links.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a, err := newApp()
		if err != nil {
			return err
		}
		return runAnalyze(ctx, a, args[0])
	},
}

// analyzeFlags holds the flags for the analyze command
type analyzeFlags struct {
	age               int
	bahncard          string
	class             int
	deutschlandTicket bool
	realTime          bool
}

var analyzeOpts analyzeFlags

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeOpts.age, "age", 30, "Age of the traveller")
	analyzeCmd.Flags().StringVar(&analyzeOpts.bahncard, "bahncard", "", "BahnCard code: "+strings.Join(vendo.Bahncards(), ", "))
	analyzeCmd.Flags().IntVar(&analyzeOpts.class, "class", 2, "Travel class (1 or 2)")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.deutschlandTicket, "deutschland-ticket", false, "Deutschland-Ticket available")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.realTime, "real-time", true, "Include live delay data from v6.db.transport.rest")
}

func runAnalyze(ctx context.Context, a *app, rawURL string) error {
	fmt.Println("--- Initialisierung ---")
	if md, err := masterdata.Load(a.cfg.Masterdata.Path); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.Masterdata.Path).Msg("timetable masterdata not loaded")
	} else {
		fmt.Printf("Fahrplan-Masterdaten geladen: %s v%s\n", md.Info.Title, md.Info.Version)
		a.log.Debug().Interface("summary", md.SchemaSummary()).Msg("masterdata loaded")
	}

	opts, err := searchOptions()
	if err != nil {
		return err
	}

	ref, err := vendo.ParseJourneyURL(rawURL)
	if err != nil {
		return err
	}

	var offers *vendo.Offers
	if ref.VBID != "" {
		fmt.Println("--- Kurzer Link (vbid) erkannt ---")
		offers, err = a.vendo.ResolveShortLink(ctx, ref.VBID, opts)
	} else {
		fmt.Println("--- Langer Link erkannt ---")
		offers, err = a.vendo.SearchOffers(ctx, ref.FromID, ref.ToID, ref.Date, ref.Time, opts)
	}
	if err != nil {
		return fmt.Errorf("fetch connection: %w", err)
	}
	if len(offers.Connections) == 0 {
		return errors.New("no connection found for the given link")
	}
	conn := offers.Connections[0]

	stops := conn.Stops()
	if len(stops) < 2 {
		return errors.New("connection has fewer than two stops")
	}

	if analyzeOpts.realTime {
		printRealTime(ctx, a, stops[0].Name, stops[len(stops)-1].Name)
	}

	date := ref.Date
	if date == "" {
		date, _, _ = strings.Cut(conn.DepartureISO(), "T")
	}
	if date == "" {
		return errors.New("connection carries no departure date")
	}

	fmt.Println("\n--- Analysiere die Verbindung ---")
	fmt.Printf("Datum: %s\n", date)
	if code, class, ok := strings.Cut(analyzeOpts.bahncard, "_"); ok {
		fmt.Printf("Rabatt: BahnCard %s, %s. Klasse\n", strings.TrimPrefix(code, "BC"), class)
	}
	if analyzeOpts.deutschlandTicket {
		fmt.Println("Deutschland-Ticket: Vorhanden")
	}

	directCents, ok := conn.PriceCents()
	if !ok {
		return errors.New("connection has no bookable offer, cannot analyze")
	}
	fmt.Printf("Direktpreis gefunden: %s\n", split.FormatEuro(directCents))

	fmt.Printf("\n%d eindeutige Haltestellen gefunden:\n", len(stops))
	for _, stop := range stops {
		fmt.Printf("  - %s\n", stop.Name)
	}

	fmt.Println("\n--- Preise für alle möglichen Teilstrecken werden abgerufen ---")
	analyzer := split.New(
		&vendo.SegmentPricer{Client: a.vendo, Options: opts},
		split.WithDelay(a.cfg.Split.SegmentDelay),
		split.WithLogger(a.log.With().Str("component", "split").Logger()),
	)
	report, err := analyzer.Analyze(ctx, stops, date, directCents)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// searchOptions builds the fare context from the analyze flags.
func searchOptions() (vendo.SearchOptions, error) {
	travellers, err := vendo.Travellers(analyzeOpts.age, analyzeOpts.bahncard)
	if err != nil {
		return vendo.SearchOptions{}, err
	}
	class := vendo.ClassSecond
	switch analyzeOpts.class {
	case 1:
		class = vendo.ClassFirst
	case 2:
	default:
		return vendo.SearchOptions{}, fmt.Errorf("invalid class %d, must be 1 or 2", analyzeOpts.class)
	}
	return vendo.SearchOptions{
		Class:             class,
		Travellers:        travellers,
		DeutschlandTicket: analyzeOpts.deutschlandTicket,
	}, nil
}

// printRealTime shows the live state of the next connections between the
// journey's endpoints. Failures are reported but never abort the analysis.
func printRealTime(ctx context.Context, a *app, fromName, toName string) {
	fmt.Println("\n--- Integriere Echtzeit-Daten ---")
	fmt.Printf("Suche Echtzeit-Daten für: %s -> %s\n", fromName, toName)
	info, err := a.api.RealTimeJourneyInfo(ctx, fromName, toName)
	if err != nil {
		fmt.Printf("Echtzeit-Daten momentan nicht verfügbar: %v\n", err)
		fmt.Println("Fallback auf bahn.de Basisdaten")
		return
	}
	fmt.Printf("Echtzeit-Daten integriert (%d Verbindungen)\n", len(info.Journeys))
	for i, j := range info.Journeys {
		fmt.Printf("  Verbindung %d: %d min, %d Umstieg(e), %s\n",
			i+1, j.DurationMinutes, j.Transfers, statusText(j.Status))
	}
}

// statusText renders a realtime status as a short German phrase.
func statusText(st transport.RealTimeStatus) string {
	if !st.Disrupted() {
		return "keine Verspätungen oder Ausfälle"
	}
	var parts []string
	if st.HasDelays {
		parts = append(parts, fmt.Sprintf("Verspätung: %d Minuten", st.TotalDelayMinutes))
	}
	if st.CancelledLegs > 0 {
		parts = append(parts, fmt.Sprintf("Ausfälle: %d Teilstrecke(n)", st.CancelledLegs))
	}
	return strings.Join(parts, ", ")
}

func printReport(report *split.Report) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("--- ERGEBNIS DER ANALYSE ---")
	fmt.Println(strings.Repeat("=", 50))
	if !report.Cheaper {
		fmt.Println("\nKeine günstigere Split-Option gefunden.")
		fmt.Printf("Das Direktticket für %s ist die beste Option.\n", split.FormatEuro(report.DirectCents))
		return
	}
	fmt.Println("\nGünstigere Split-Ticket-Option gefunden!")
	fmt.Printf("Direktpreis: %s\n", split.FormatEuro(report.DirectCents))
	fmt.Printf("Bester Split-Preis: %s\n", split.FormatEuro(report.SplitCents))
	fmt.Printf("Ersparnis: %s (%.1f %%)\n", split.FormatEuro(report.SavingsCents), report.SavingsPercent())
	fmt.Println("\nEmpfohlene Tickets zum Buchen:")
	for i, tkt := range report.Tickets {
		fmt.Printf("  Ticket %d: Von %s nach %s für %s\n",
			i+1, tkt.From.Name, tkt.To.Name, split.FormatEuro(tkt.PriceCents))
		if tkt.Covered {
			fmt.Println("      -> (Fahrt durch Deutschland-Ticket abgedeckt)")
			continue
		}
		link := vendo.BookingLink(vendo.BookingParams{
			FromName:          tkt.From.Name,
			FromID:            tkt.From.ID,
			ToName:            tkt.To.Name,
			ToID:              tkt.To.ID,
			Departure:         tkt.Departure,
			Bahncard:          analyzeOpts.bahncard,
			DeutschlandTicket: analyzeOpts.deutschlandTicket,
		})
		fmt.Printf("      -> Buchungslink: %s\n", link)
	}
}
