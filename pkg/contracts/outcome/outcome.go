package outcome

import "fmt"

// Outcome é o resultado de um evento; Unresolved marca "ainda sem resultado"
type Outcome string

const (
	Unresolved Outcome = "unresolved"
	First      Outcome = "first"
	Second     Outcome = "second"
	Draw       Outcome = "draw"
)

// Mercados suportados; cada um fixa o conjunto de resultados válidos
const (
	MarketWinner = "winner" // first | second
	Market1X2    = "1x2"    // first | draw | second
)

// Terminal reporta se o resultado é definitivo
func (o Outcome) Terminal() bool {
	return o == First || o == Second || o == Draw
}

func (o Outcome) String() string { return string(o) }

// Parse aceita qualquer membro da enumeração, inclusive unresolved
func Parse(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case Unresolved, First, Second, Draw:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// ForMarket retorna os resultados terminais válidos de um mercado
func ForMarket(market string) ([]Outcome, error) {
	switch market {
	case MarketWinner:
		return []Outcome{First, Second}, nil
	case Market1X2:
		return []Outcome{First, Draw, Second}, nil
	}
	return nil, fmt.Errorf("unknown market %q", market)
}

// ValidFor reporta se o é um resultado terminal possível no mercado
func ValidFor(market string, o Outcome) bool {
	set, err := ForMarket(market)
	if err != nil {
		return false
	}
	for _, v := range set {
		if v == o {
			return true
		}
	}
	return false
}
