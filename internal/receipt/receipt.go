// Package receipt renders plain-text order receipts and archives them.
package receipt

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"quickcart/internal/models"
	"quickcart/internal/pricing"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength = 45
	cutNameLength = 42
	dateLayout    = "02/01/2006, 15:04:05"
)

var billFrom = []string{
	"QuickCart India Hub",
	"22/3, 20/3, Dharmatala Rd",
	"Belur, Bally, Howrah",
	"West Bengal - 711202",
}

// Line is one printed row of the item table
type Line struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Amount   decimal.Decimal
}

// Receipt is everything printed for an order
type Receipt struct {
	OrderID    string
	Date       time.Time
	BillTo     models.ShippingAddress
	Lines      []Line
	Settlement pricing.Settlement
	TaxRate    decimal.Decimal
}

// Build derives a receipt from the order snapshot. Prices come from the line
// items, never from the current catalog.
func Build(order models.Order, policy pricing.Policy) Receipt {
	r := Receipt{
		OrderID:    order.ID,
		Date:       order.CreatedAt,
		BillTo:     order.ShippingAddress,
		Lines:      make([]Line, 0, len(order.Items)),
		Settlement: policy.Settle(order.Subtotal()),
		TaxRate:    policy.TaxRate,
	}
	for _, item := range order.Items {
		r.Lines = append(r.Lines, Line{
			Name:     truncateName(item.Name),
			Quantity: item.Quantity,
			Price:    item.Price,
			Amount:   item.Extension(),
		})
	}
	return r
}

// Render writes the receipt as aligned plain text
func Render(w io.Writer, r Receipt) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := &printer{w: tw}

	p.printf("QUICKCART V1.0\n")
	p.printf("OFFICIAL ORDER RECEIPT\n\n")
	p.printf("Tracking ID:\t%s\n", r.OrderID)
	p.printf("Date:\t%s\n\n", r.Date.Format(dateLayout))

	p.printf("BILL TO:\tBILL FROM:\n")
	billTo := []string{
		r.BillTo.Name,
		r.BillTo.Email,
		r.BillTo.Address,
		fmt.Sprintf("%s, India - %s", r.BillTo.City, r.BillTo.Zip),
	}
	for i := range billTo {
		p.printf("%s\t%s\n", billTo[i], billFrom[i])
	}
	p.printf("\n")

	p.printf("Product Name\tQty\tPrice\tTotal\n")
	for _, l := range r.Lines {
		p.printf("%s\t%d\t%s\t%s\n", l.Name, l.Quantity, inr(l.Price), inr(l.Amount))
	}
	p.printf("\n")

	s := r.Settlement
	p.printf("Subtotal:\t%s\n", inr(s.Subtotal))
	p.printf("GST (%s%%):\t%s\n", percent(r.TaxRate), inr(s.Tax))
	if s.FreeShipping {
		p.printf("Shipping:\tFREE\n")
	} else {
		p.printf("Shipping:\t%s\n", inr(s.Shipping))
	}
	p.printf("GRAND TOTAL:\t%s\n\n", inr(s.GrandTotal))
	p.printf("Thank you for shopping at QuickCart India V1.0. This is a secure digital receipt.\n")

	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:cutNameLength]) + "..."
	}
	return name
}

func inr(d decimal.Decimal) string {
	return "INR " + d.StringFixed(2)
}

func percent(rate decimal.Decimal) string {
	pct := rate.Mul(decimal.NewFromInt(100))
	if pct.IsInteger() {
		return strconv.FormatInt(pct.IntPart(), 10)
	}
	return pct.String()
}
