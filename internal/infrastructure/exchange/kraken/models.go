package kraken

import (
	"encoding/json"
	"fmt"

	"exapi-service/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// Envelope es el sobre común de toda respuesta pública de Kraken
type Envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// DepthEntry contiene ambos lados del libro para un par
type DepthEntry struct {
	Asks []DepthLevel `json:"asks"`
	Bids []DepthLevel `json:"bids"`
}

// DepthLevel es [<price>, <volume>, <timestamp>]; precio y volumen llegan como strings
type DepthLevel []json.RawMessage

// ToPriceLevel convierte el nivel a decimales exactos
func (l DepthLevel) ToPriceLevel() (entities.PriceLevel, error) {
	if len(l) < 2 {
		return entities.PriceLevel{}, fmt.Errorf("%w: level has %d fields", ErrInvalidResponse, len(l))
	}

	price, err := parseDecimal(l[0])
	if err != nil {
		return entities.PriceLevel{}, fmt.Errorf("%w: price: %v", ErrInvalidResponse, err)
	}
	amount, err := parseDecimal(l[1])
	if err != nil {
		return entities.PriceLevel{}, fmt.Errorf("%w: volume: %v", ErrInvalidResponse, err)
	}

	return entities.PriceLevel{Price: price, Amount: amount}, nil
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(s)
	}
	var d decimal.Decimal
	err := json.Unmarshal(raw, &d)
	return d, err
}

func toPriceLevels(levels []DepthLevel) ([]entities.PriceLevel, error) {
	out := make([]entities.PriceLevel, 0, len(levels))
	for _, l := range levels {
		level, err := l.ToPriceLevel()
		if err != nil {
			return nil, err
		}
		out = append(out, level)
	}
	return out, nil
}
