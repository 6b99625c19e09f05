package model

import (
	"fmt"
	"maps"
	"slices"

	"github.com/udisondev/deepwatch/internal/world"
)

// tradeState is one side of a two-party trade. A vessel is idle when
// partner is empty. Pairing is always mutual.
type tradeState struct {
	partner   string
	offer     map[string]int
	accepting bool
	myTurn    bool
}

func (t *tradeState) reset() {
	*t = tradeState{}
}

// TradePartner returns the registry key of the current partner, if any.
func (inv *Inventory) TradePartner() (string, bool) {
	return inv.trade.partner, inv.trade.partner != ""
}

// Offer returns a copy of this side's current offer.
func (inv *Inventory) Offer() map[string]int {
	return maps.Clone(inv.trade.offer)
}

// Accepting reports whether this side has accepted the current offers.
func (inv *Inventory) Accepting() bool { return inv.trade.accepting }

// MyTurn reports whether this side is expected to respond.
func (inv *Inventory) MyTurn() bool { return inv.trade.myTurn }

// ValidOffer sums duplicate lines and checks each item against holdings.
// An empty list is a valid offer of nothing.
func (inv *Inventory) ValidOffer(items []ItemCount) (map[string]int, error) {
	offer := make(map[string]int, len(items))
	for _, ic := range items {
		if ic.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrBadOffer, ic.Item)
		}
		offer[NormalizeItem(ic.Item)] += ic.Quantity
	}
	for item, n := range offer {
		if inv.items[item] < n {
			return nil, fmt.Errorf("%w: not enough %s", ErrBadOffer, item)
		}
	}
	return offer, nil
}

// OfferText renders an offer for messages.
func OfferText(offer map[string]int) string {
	if len(offer) == 0 {
		return "nothing"
	}
	lines := make([]string, 0, len(offer))
	for _, item := range slices.Sorted(maps.Keys(offer)) {
		lines = append(lines, fmt.Sprintf("%dx %s", offer[item], world.Title(item)))
	}
	return world.JoinAnd(lines)
}

// BeginTrade opens a trade from a to b with a's opening offer.
func BeginTrade(a, b *Vessel, items []ItemCount) (string, error) {
	if a == b || a.Key() == b.Key() {
		return "", ErrSelfTrade
	}
	if a.Position() != b.Position() {
		return "", ErrNotColocated
	}
	if _, busy := a.Inventory.TradePartner(); busy {
		return "", ErrAlreadyTrade
	}
	if _, busy := b.Inventory.TradePartner(); busy {
		return "", ErrPartnerBusy
	}
	offer, err := a.Inventory.ValidOffer(items)
	if err != nil {
		return "", err
	}

	a.Inventory.trade = tradeState{partner: b.Key(), offer: offer}
	b.Inventory.trade = tradeState{partner: a.Key(), offer: map[string]int{}, myTurn: true}

	text := OfferText(offer)
	b.Send(RoleCaptain, fmt.Sprintf("**%s** asked for trade! They are offering **%s**. Respond with an offer to present your side of the trade, accept if you want to offer nothing in exchange, or reject if you don't want to trade. You have until either sub next moves to complete the trade.", a.Name(), text))
	return fmt.Sprintf("You have offered **%s** to %s. Wait for them to respond to the trade, then counteroffer, accept or reject. You have until either sub next moves to complete the trade.", text, b.Name()), nil
}

// MakeOffer replaces self's offer and passes the turn to the partner. An
// offer made out of turn cancels the trade for both sides.
func MakeOffer(self, partner *Vessel, items []ItemCount) (string, error) {
	if err := checkPair(self, partner); err != nil {
		return "", err
	}
	if !self.Inventory.trade.myTurn {
		self.Inventory.trade.reset()
		partner.Inventory.trade.reset()
		partner.Send(RoleCaptain, fmt.Sprintf("Trade with **%s** cancelled because they changed their offer out of turn.", self.Name()))
		return fmt.Sprintf("Trade with **%s** cancelled because you made an offer out of turn.", partner.Name()), nil
	}
	offer, err := self.Inventory.ValidOffer(items)
	if err != nil {
		return "", err
	}
	self.Inventory.trade.offer = offer
	self.Inventory.trade.myTurn = false
	self.Inventory.trade.accepting = false
	partner.Inventory.trade.myTurn = true
	partner.Inventory.trade.accepting = false

	text := OfferText(offer)
	partner.Send(RoleCaptain, fmt.Sprintf("Received counteroffer of **%s**.", text))
	return fmt.Sprintf("Counteroffer of **%s** made.", text), nil
}

// AcceptTrade marks self as accepting. If the partner already accepted the
// swap is carried out and both sides return to idle.
func AcceptTrade(self, partner *Vessel) (string, error) {
	if err := checkPair(self, partner); err != nil {
		return "", err
	}
	mine, theirs := &self.Inventory.trade, &partner.Inventory.trade
	if !theirs.accepting {
		mine.accepting = true
		mine.myTurn = false
		theirs.myTurn = true
		partner.Send(RoleCaptain, "Trading partner accepted this offer! Accept it as well, make a counteroffer or reject the trade.")
		return "Accepted offer! Waiting on trade partner to accept as well.", nil
	}

	// Holdings may have changed since the offers were made.
	if _, err := self.Inventory.ValidOffer(toItems(mine.offer)); err != nil {
		return "", err
	}
	if _, err := partner.Inventory.ValidOffer(toItems(theirs.offer)); err != nil {
		return "", err
	}
	give, take := mine.offer, theirs.offer
	self.Inventory.removeMany(give)
	partner.Inventory.removeMany(take)
	self.Inventory.addMany(take)
	partner.Inventory.addMany(give)

	mine.reset()
	theirs.reset()
	partner.Send(RoleCaptain, "Trade completed.")
	return "Trade completed.", nil
}

// RejectTrade cancels the trade for both sides.
func RejectTrade(self, partner *Vessel) (string, error) {
	if err := checkPair(self, partner); err != nil {
		return "", err
	}
	self.Inventory.trade.reset()
	partner.Inventory.trade.reset()
	partner.Send(RoleCaptain, fmt.Sprintf("Trade with **%s** cancelled due to rejection.", self.Name()))
	return fmt.Sprintf("Trade with **%s** cancelled due to rejection.", partner.Name()), nil
}

// TimeoutTrade cancels an open trade because one side moved. partner may be
// nil if it no longer exists. Reports whether a trade was open.
func TimeoutTrade(self, partner *Vessel) bool {
	name, open := self.Inventory.TradePartner()
	if !open {
		return false
	}
	self.Inventory.trade.reset()
	self.Send(RoleCaptain, fmt.Sprintf("Trade with %s cancelled due to timeout.", world.Title(name)))
	if partner != nil && partner.Inventory.trade.partner == self.Key() {
		partner.Inventory.trade.reset()
		partner.Send(RoleCaptain, fmt.Sprintf("Trade with %s cancelled due to timeout.", self.Name()))
	}
	return true
}

func checkPair(self, partner *Vessel) error {
	if partner == nil || self.Inventory.trade.partner != partner.Key() ||
		partner.Inventory.trade.partner != self.Key() {
		return ErrNoTrade
	}
	return nil
}

func toItems(offer map[string]int) []ItemCount {
	out := make([]ItemCount, 0, len(offer))
	for item, n := range offer {
		out = append(out, ItemCount{Item: item, Quantity: n})
	}
	return out
}
