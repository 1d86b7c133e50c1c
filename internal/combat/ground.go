package combat

import (
	"conquest-server/internal/rng"
)

// MaxGroundExchanges ends an invasion that neither side can finish. The
// defender keeps the planet.
const MaxGroundExchanges = 10000

// GroundResult is the outcome of one planetary invasion.
type GroundResult struct {
	Winner            Winner
	AttackerRemaining int
	DefenderRemaining int
}

// ResolveGround fights one troop at a time. The attacker strikes first; each
// successful rating roll removes a single enemy troop. The defender holds the
// planet unless the attacker is the one with troops left. When neither side
// can score a hit nothing is drawn from the stream.
func ResolveGround(attackerTroops int, attackerRating float64, defenderTroops int, defenderRating float64, stream *rng.Stream) GroundResult {
	attacker, defender := attackerTroops, defenderTroops
	stalemate := attackerRating <= 0 && defenderRating <= 0

	for exchange := 0; !stalemate && attacker > 0 && defender > 0 && exchange < MaxGroundExchanges; exchange++ {
		if stream.Chance(attackerRating) {
			defender--
		}
		if defender == 0 {
			break
		}
		if stream.Chance(defenderRating) {
			attacker--
		}
	}

	winner := WinnerDefender
	if attacker > 0 && defender == 0 {
		winner = WinnerAttacker
	}
	return GroundResult{
		Winner:            winner,
		AttackerRemaining: attacker,
		DefenderRemaining: defender,
	}
}
