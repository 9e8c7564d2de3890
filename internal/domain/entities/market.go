package entities

import (
	"fmt"
	"strings"
)

// Market identifies a trading pair on one exchange
type Market struct {
	Exchange string `json:"exchange"`
	Base     string `json:"base"`
	Quote    string `json:"quote"`
}

// NewMarket normalizes names: exchange lowercase, assets uppercase
func NewMarket(exchange, base, quote string) Market {
	return Market{
		Exchange: strings.ToLower(strings.TrimSpace(exchange)),
		Base:     strings.ToUpper(strings.TrimSpace(base)),
		Quote:    strings.ToUpper(strings.TrimSpace(quote)),
	}
}

// Key is the composite (exchange, quote, base) cache key
func (m Market) Key() string {
	return m.Exchange + ":" + m.Quote + ":" + m.Base
}

// Symbol returns BASE/QUOTE
func (m Market) Symbol() string {
	return m.Base + "/" + m.Quote
}

func (m Market) String() string {
	return fmt.Sprintf("%s %s", m.Exchange, m.Symbol())
}
