package pricing

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Line is one surcharge on top of the base amount.
type Line struct {
	Kind   string  `json:"kind"`
	Ref    string  `json:"ref"`
	Amount float64 `json:"amount"`
}

// Breakdown is a full quote: the base product amount plus element surcharges.
type Breakdown struct {
	Base     float64 `json:"base"`
	Lines    []Line  `json:"lines"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Sum builds a Breakdown from a base amount and surcharge lines.
func Sum(base float64, cur string, lines []Line) Breakdown {
	b := Breakdown{Base: base, Lines: make([]Line, 0, len(lines)), Currency: cur}
	total := base
	for _, l := range lines {
		l.Amount = roundCents(l.Amount)
		total += l.Amount
		b.Lines = append(b.Lines, l)
	}
	b.Total = roundCents(total)
	return b
}

// InscriptionCharge prices an inscription line by its non-space characters.
func (s Surcharges) InscriptionCharge(text string) float64 {
	n := 0
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' {
			n++
		}
	}
	return roundCents(float64(n) * s.InscriptionPerChar)
}

// ImageCharge prices an image by its printed area.
func (s Surcharges) ImageCharge(widthMm, heightMm float64) float64 {
	if widthMm <= 0 || heightMm <= 0 {
		return 0
	}
	return roundCents(widthMm / 10 * heightMm / 10 * s.ImagePerSquareCm)
}

// Format renders amount in the ISO currency cur for the given language.
// Unknown currencies fall back to USD.
func Format(amount float64, cur string, tag language.Tag) string {
	unit, err := currency.ParseISO(cur)
	if err != nil {
		unit = currency.USD
	}
	return message.NewPrinter(tag).Sprintf("%v%v", currency.Symbol(unit),
		number.Decimal(roundCents(amount), number.Scale(2)))
}
