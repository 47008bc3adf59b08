package kinds

const (
	length   = 64
	idLength = 8
	depthMax = length / idLength
	idMask   = (1 << idLength) - 1
)

// Bases returns the "base" IDs at each level
// (beyond the first) by shifting and masking.
func Bases(t uint64) [depthMax]uint64 {
	var bases [depthMax]uint64
	for i := 1; i < depthMax; i++ {
		bases[i-1] = (t >> (idLength * i)) & idMask
	}
	return bases
}

func Kind(id uint64, bases ...uint64) uint64 {
	id = id & idMask
	ids := make(map[uint64]struct{})

	for _, base := range bases {
		for j := 0; j < depthMax; j++ {
			baseId := (base >> (idLength * j)) & idMask
			if baseId == 0 {
				break
			}
			if _, ok := ids[baseId]; !ok {
				ids[baseId] = struct{}{}
				id |= baseId << (idLength * len(ids))
			}
		}
	}
	return id
}

// IsKind checks if kind matches any of the bases provided.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		baseId := base & idMask
		if kind == baseId {
			return true
		}
		for i := 0; i < depthMax; i++ {
			currentId := (kind >> (idLength * i)) & idMask
			if currentId == baseId {
				return true
			}
		}
	}
	return false
}

// String names the most specific kind. Unknown kinds render as "unknown".
func String(kind uint64) string {
	if name, ok := names[kind]; ok {
		return name
	}
	return "unknown"
}

var (
	Null      = Kind(0)
	Element   = Kind(1)
	Automaton = Kind(2, Element)
	Compound  = Kind(3, Automaton)

	Variable       = Kind(4, Element)
	InputVariable  = Kind(5, Variable)
	OutputVariable = Kind(6, Variable)
	Parameter      = Kind(7, Element)

	Event         = Kind(8, Element)
	InputEvent    = Kind(9, Event)
	OutputEvent   = Kind(10, Event)
	InternalEvent = Kind(11, Event)

	Mode       = Kind(12, Element)
	Transition = Kind(13, Element)
	Forced     = Kind(14, Transition)
	Unforced   = Kind(15, Transition)
)

var names = map[uint64]string{
	Null:           "null",
	Element:        "element",
	Automaton:      "automaton",
	Compound:       "compound",
	Variable:       "variable",
	InputVariable:  "input",
	OutputVariable: "output",
	Parameter:      "parameter",
	Event:          "event",
	InputEvent:     "input",
	OutputEvent:    "output",
	InternalEvent:  "internal",
	Mode:           "mode",
	Transition:     "transition",
	Forced:         "forced",
	Unforced:       "unforced",
}
