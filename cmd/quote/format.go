package main

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/stock-quote/internal/domain"
)

// price renders v with two decimal places, rounding half away from zero.
func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// signed renders v like price with an explicit sign on non-negative values.
func signed(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return d.StringFixed(2)
	}

	return "+" + d.StringFixed(2)
}

func writeQuote(w io.Writer, q *domain.NormalizedQuote) error {
	_, err := fmt.Fprintf(w,
		"%s\n"+
			"  Current Price:  $%s\n"+
			"  Change:         $%s (%s%%)\n"+
			"  High:           $%s\n"+
			"  Low:            $%s\n"+
			"  Open:           $%s\n"+
			"  Previous Close: $%s\n",
		q.Symbol,
		price(q.CurrentPrice),
		signed(q.Change), signed(q.ChangePercent),
		price(q.HighPrice),
		price(q.LowPrice),
		price(q.OpenPrice),
		price(q.PreviousClose),
	)

	return err
}
