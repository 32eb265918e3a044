package paynova

import "math/big"

// Token is the fungible-token surface the ledger calls out to when a record
// settles in a non-native token. Implementations sit outside the ledger's
// trust boundary: any error return aborts the settlement, and implementations
// may attempt to re-enter the ledger while a call is in flight.
type Token interface {
	// TransferFrom pulls amount from owner into the caller's custody. The
	// owner must have granted the ledger a sufficient allowance beforehand.
	TransferFrom(owner, destination [20]byte, amount *big.Int) error
	// Transfer sends amount from the ledger's own balance to destination.
	Transfer(destination [20]byte, amount *big.Int) error
	// BalanceOf reports the balance held by account.
	BalanceOf(account [20]byte) (*big.Int, error)
	// Allowance reports how much spender may pull from owner.
	Allowance(owner, spender [20]byte) (*big.Int, error)
}

// TokenRegistry resolves token contract addresses to their client
// implementations.
type TokenRegistry interface {
	Token(addr [20]byte) (Token, bool)
}

// StaticRegistry is a fixed map-backed TokenRegistry used by the daemon and
// by tests.
type StaticRegistry struct {
	tokens map[[20]byte]Token
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{tokens: make(map[[20]byte]Token)}
}

// Register binds a token implementation to its address. The native sentinel
// address is ignored; native transfers never go through the registry.
func (r *StaticRegistry) Register(addr [20]byte, token Token) {
	if r == nil || token == nil || addr == NativeToken {
		return
	}
	r.tokens[addr] = token
}

// Token implements the TokenRegistry interface.
func (r *StaticRegistry) Token(addr [20]byte) (Token, bool) {
	if r == nil {
		return nil, false
	}
	token, ok := r.tokens[addr]
	return token, ok
}
