package washbay

// Phase is one discrete stage of a wash.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreWash
	PhasePreWashByHand
	PhaseMainWash
	PhaseRollers
	PhaseHandDry
	PhaseWaxing
	PhaseBilling
)

var phaseNames = map[Phase]string{
	PhaseIdle:          "idle",
	PhasePreWash:       "pre_wash",
	PhasePreWashByHand: "pre_wash_by_hand",
	PhaseMainWash:      "main_wash",
	PhaseRollers:       "rollers",
	PhaseHandDry:       "hand_dry",
	PhaseWaxing:        "waxing",
	PhaseBilling:       "billing",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the phase by name so JSON payloads stay readable.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Extras are the optional add-ons chosen when a wash starts.
type Extras struct {
	PreWashByHand bool `json:"pre_wash_by_hand"`
	HandDry       bool `json:"hand_dry"`
	Waxing        bool `json:"waxing"`
}

// Validate reports ErrInvalidRequest when waxing is asked for without hand drying.
func (e Extras) Validate() error {
	if e.Waxing && !e.HandDry {
		return ErrInvalidRequest
	}
	return nil
}

// Sequence returns the ordered phases a wash with these extras walks through.
// The bay returns to PhaseIdle after the last element, which is always PhaseBilling.
func (e Extras) Sequence() []Phase {
	seq := make([]Phase, 0, 6)
	if e.PreWashByHand {
		seq = append(seq, PhasePreWashByHand)
	} else {
		seq = append(seq, PhasePreWash)
	}
	seq = append(seq, PhaseMainWash, PhaseRollers)
	if e.HandDry {
		seq = append(seq, PhaseHandDry)
		if e.Waxing {
			seq = append(seq, PhaseWaxing)
		}
	}
	return append(seq, PhaseBilling)
}
