// Package dice implements dice expression rolling for a fifth-edition
// ruleset. Expressions follow the NdX±M form ("2d6+3", "1d20-1", "d8");
// compound expressions ("2d6+1d4") are out of scope for v1.
//
// Critical and fumble flags are markers only, set exclusively on single
// d20 rolls. Interpreting their consequences is up to the rules layer.
package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Mode selects how a d20 roll is made.
type Mode string

const (
	Normal       Mode = "normal"
	Advantage    Mode = "advantage"
	Disadvantage Mode = "disadvantage"
)

// ValidFaces lists the die sizes supported in v1.
var ValidFaces = []int{4, 6, 8, 10, 12, 20, 100}

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Result carries the full detail of one roll.
type Result struct {
	Rolls      []int  `json:"rolls"`
	Total      int    `json:"total"`
	Modifier   int    `json:"modifier"`
	Expression string `json:"expression"`
	Mode       Mode   `json:"mode"`
	Discarded  []int  `json:"discarded,omitempty"`
	Critical   bool   `json:"critical"`
	Fumble     bool   `json:"fumble"`
	IsD20      bool   `json:"is_d20"`
}

// String renders the roll in the "[d+d]+M = total" form used in logs
// and the combat transcript.
func (r Result) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, d := range r.Rolls {
		if i > 0 {
			sb.WriteString("+")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	sb.WriteString("]")
	if r.Modifier > 0 {
		fmt.Fprintf(&sb, "+%d", r.Modifier)
	} else if r.Modifier < 0 {
		fmt.Fprintf(&sb, "%d", r.Modifier)
	}
	fmt.Fprintf(&sb, " = %d", r.Total)
	if len(r.Discarded) > 0 {
		fmt.Fprintf(&sb, " (discarded: %d)", r.Discarded[0])
	}
	if r.Critical {
		sb.WriteString(" CRIT")
	} else if r.Fumble {
		sb.WriteString(" FUMBLE")
	}
	return sb.String()
}

// Parse splits an NdX±M expression into count, faces and modifier.
// A missing count defaults to 1.
func Parse(expression string) (count, faces, modifier int, err error) {
	expr := strings.ToLower(strings.ReplaceAll(expression, " ", ""))
	m := exprPattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid dice expression %q: expected NdX, dX, NdX+M or NdX-M", expression)
	}

	count = 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	faces, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		modifier, _ = strconv.Atoi(m[3])
	}
	return count, faces, modifier, nil
}

func validFace(faces int) bool {
	for _, f := range ValidFaces {
		if f == faces {
			return true
		}
	}
	return false
}

// Roller rolls dice against an injectable random source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller over the given source. A nil source uses
// the process-wide default.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = Default()
	}
	return &Roller{src: src}
}

// RollDie rolls a single die of the given size.
func (r *Roller) RollDie(faces int) (int, error) {
	if !validFace(faces) {
		return 0, fmt.Errorf("invalid die d%d: valid faces are %v", faces, ValidFaces)
	}
	return r.src.IntN(faces) + 1, nil
}

// Roll evaluates an NdX±M expression under the given mode.
//
// Advantage and disadvantage apply only to single d20 rolls; for any
// other expression the mode is silently ignored and the result reports
// Normal.
func (r *Roller) Roll(expression string, mode Mode) (Result, error) {
	count, faces, modifier, err := Parse(expression)
	if err != nil {
		return Result{}, err
	}
	if count < 1 {
		return Result{}, fmt.Errorf("dice count must be at least 1")
	}

	isD20 := faces == 20 && count == 1

	if mode != Normal && mode != "" && isD20 {
		return r.rollWithMode(modifier, expression, mode)
	}

	rolls := make([]int, 0, count)
	total := modifier
	for i := 0; i < count; i++ {
		v, err := r.RollDie(faces)
		if err != nil {
			return Result{}, err
		}
		rolls = append(rolls, v)
		total += v
	}

	res := Result{
		Rolls:      rolls,
		Total:      total,
		Modifier:   modifier,
		Expression: expression,
		Mode:       Normal,
		IsD20:      isD20,
	}
	if isD20 {
		res.Critical = rolls[0] == 20
		res.Fumble = rolls[0] == 1
	}
	return res, nil
}

func (r *Roller) rollWithMode(modifier int, expression string, mode Mode) (Result, error) {
	first, err := r.RollDie(20)
	if err != nil {
		return Result{}, err
	}
	second, err := r.RollDie(20)
	if err != nil {
		return Result{}, err
	}

	kept, discarded := first, second
	if mode == Advantage {
		if second > first {
			kept, discarded = second, first
		}
	} else {
		if second < first {
			kept, discarded = second, first
		}
	}

	return Result{
		Rolls:      []int{kept},
		Total:      kept + modifier,
		Modifier:   modifier,
		Expression: expression,
		Mode:       mode,
		Discarded:  []int{discarded},
		Critical:   kept == 20,
		Fumble:     kept == 1,
		IsD20:      true,
	}, nil
}

// Resolve collapses a pair of advantage/disadvantage claims into one
// mode. Both present cancel out to Normal.
func Resolve(advantage, disadvantage bool) Mode {
	switch {
	case advantage && disadvantage:
		return Normal
	case advantage:
		return Advantage
	case disadvantage:
		return Disadvantage
	default:
		return Normal
	}
}

// Roll is a convenience over the default roller.
func Roll(expression string, mode Mode) (Result, error) {
	return NewRoller(nil).Roll(expression, mode)
}
