package world

import "sanctuary.game/internal/sim/world/kernel/model"

func (w *World) Ledger() model.Ledger { return w.ledger }

// earn credits seeds. Negative or NaN amounts are ignored.
func (w *World) earn(amount float64) {
	if !(amount > 0) {
		return
	}
	w.ledger.Seeds += amount
	w.ledger.TotalSeedsEarned += amount
}

// spend debits seeds, failing rather than clamping when the balance is short.
func (w *World) spend(amount float64) bool {
	if amount < 0 {
		return false
	}
	if w.ledger.Seeds < amount {
		return false
	}
	w.ledger.Seeds -= amount
	return true
}
