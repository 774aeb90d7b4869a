// Package identity derives pool custody handles and verifies callers.
package identity

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role names one custody handle owned by a pool.
type Role string

const (
	RoleConfig Role = "config"
	RoleLPMint Role = "lp"
	RoleVaultX Role = "vault_x"
	RoleVaultY Role = "vault_y"
)

// DefaultNamespace prefixes every derivation so handles never collide with
// caller-controlled addresses from other derivation schemes.
var DefaultNamespace = []byte("amm")

// Deriver maps a pool's identity inputs to a deterministic handle.
type Deriver interface {
	Derive(tokenX, tokenY common.Address, seed uint64, role Role) common.Address
}

// KeccakDeriver derives handles as the low 20 bytes of
// keccak256(namespace || role || tokenX || tokenY || le64(seed)).
type KeccakDeriver struct {
	Namespace []byte
}

func NewKeccakDeriver() KeccakDeriver {
	return KeccakDeriver{Namespace: DefaultNamespace}
}

func (d KeccakDeriver) Derive(tokenX, tokenY common.Address, seed uint64, role Role) common.Address {
	seedBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(seedBytes, seed)

	hash := crypto.Keccak256(d.Namespace, []byte(role), tokenX.Bytes(), tokenY.Bytes(), seedBytes)
	return common.BytesToAddress(hash[12:])
}

// Custody holds every handle a pool owns.
type Custody struct {
	Config common.Address
	LPMint common.Address
	VaultX common.Address
	VaultY common.Address
}

// DeriveCustody derives all four custody handles for a pool.
func DeriveCustody(d Deriver, tokenX, tokenY common.Address, seed uint64) Custody {
	return Custody{
		Config: d.Derive(tokenX, tokenY, seed, RoleConfig),
		LPMint: d.Derive(tokenX, tokenY, seed, RoleLPMint),
		VaultX: d.Derive(tokenX, tokenY, seed, RoleVaultX),
		VaultY: d.Derive(tokenX, tokenY, seed, RoleVaultY),
	}
}
