package parse

import (
	"fmt"
	"regexp"
	"strings"

	"carwash-backend/internal/washbay"
)

var separatorRe = regexp.MustCompile(`[\s,+;]+`)

type extra int

const (
	extraPreWashByHand extra = iota
	extraHandDry
	extraWaxing
)

// aliases maps accepted tokens (English and Spanish) onto extras.
var aliases = map[string]extra{
	"prewash":          extraPreWashByHand,
	"pre_wash_by_hand": extraPreWashByHand,
	"prelavado":        extraPreWashByHand,
	"prelavado_a_mano": extraPreWashByHand,
	"dry":              extraHandDry,
	"hand_dry":         extraHandDry,
	"secado":           extraHandDry,
	"secado_a_mano":    extraHandDry,
	"wax":              extraWaxing,
	"waxing":           extraWaxing,
	"encerado":         extraWaxing,
}

// ParseExtras turns a list such as "prewash,dry+wax" into an extras selection.
// An empty list or "none" selects no extras. Waxing without drying is accepted
// here and rejected by the bay.
func ParseExtras(raw string) (washbay.Extras, error) {
	var e washbay.Extras

	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" || s == "none" {
		return e, nil
	}

	for _, token := range separatorRe.Split(s, -1) {
		if token == "" {
			continue
		}
		x, ok := aliases[token]
		if !ok {
			return washbay.Extras{}, fmt.Errorf("unknown extra %q in %q", token, raw)
		}
		switch x {
		case extraPreWashByHand:
			e.PreWashByHand = true
		case extraHandDry:
			e.HandDry = true
		case extraWaxing:
			e.Waxing = true
		}
	}
	return e, nil
}
