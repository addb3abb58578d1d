package domain

// AddressKind is the delivery channel of a notification address.
type AddressKind string

const (
	AddressEmail AddressKind = "email"
	AddressNATS  AddressKind = "nats"
)

// Address is a place where a player wants mission updates delivered.
type Address struct {
	Kind    AddressKind
	Address string
	Active  bool
}

// Player is a participant of a game.
type Player struct {
	Name string

	// Group is a free-text tag such as a school or team. It is only used to
	// avoid seating members of the same group next to each other.
	Group string

	Addresses []Address
}

// AddAddress registers a notification address. Re-adding an existing
// address reactivates it.
func (p *Player) AddAddress(kind AddressKind, address string) {
	for i := range p.Addresses {
		if p.Addresses[i].Kind == kind && p.Addresses[i].Address == address {
			p.Addresses[i].Active = true
			return
		}
	}
	p.Addresses = append(p.Addresses, Address{Kind: kind, Address: address, Active: true})
}

// ActiveAddresses returns the addresses that should receive updates.
func (p *Player) ActiveAddresses() []Address {
	var out []Address
	for _, a := range p.Addresses {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}
