package system

const (
	MinMorale  = -5
	MaxMorale  = 5
	MinRecruit = 1
	MaxRecruit = 10
	MaxTroops  = 1000
)

// Planet is a populated world inside a system. Planets are captured or
// neutralised, never removed.
type Planet struct {
	Owner   string `json:"owner"`
	Morale  int    `json:"morale"`
	Recruit int    `json:"recruit"`
	Troops  int    `json:"troops"`
}

// MinimumGarrison is the troop count below which the planet grows restless.
func (p Planet) MinimumGarrison() int {
	unhappiness := 0
	if p.Morale < 0 {
		unhappiness = -p.Morale
	}
	return 3*p.Recruit + 3*unhappiness
}

func (p Planet) IsUnderGarrisoned() bool {
	return p.Troops < p.MinimumGarrison()
}

// ChangeMorale shifts morale, clamped to the allowed range.
func (p *Planet) ChangeMorale(delta int) {
	p.Morale = clamp(p.Morale+delta, MinMorale, MaxMorale)
}

// RecruitTroops adds one turn of recruits, capped at MaxTroops.
func (p *Planet) RecruitTroops() {
	p.Troops = min(MaxTroops, p.Troops+p.Recruit)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
