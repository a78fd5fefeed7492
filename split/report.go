package split

import "fmt"

// Ticket is one leg of the recommended split, priced on its own.
type Ticket struct {
	From       Stop
	To         Stop
	PriceCents int
	Covered    bool
	Departure  string
}

// Report is the outcome of a split analysis. Tickets is populated only when
// the split undercuts the direct fare.
type Report struct {
	DirectCents  int
	SplitCents   int
	SavingsCents int
	Cheaper      bool
	Tickets      []Ticket
}

// SavingsPercent is the saving relative to the direct fare.
func (r *Report) SavingsPercent() float64 {
	if !r.Cheaper || r.DirectCents == 0 {
		return 0
	}
	return float64(r.SavingsCents) / float64(r.DirectCents) * 100
}

// FormatEuro renders a cent amount as a euro string, e.g. "17.99 €".
func FormatEuro(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d €", sign, cents/100, cents%100)
}
