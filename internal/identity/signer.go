package identity

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Caller is an address claiming to have signed a request digest.
type Caller struct {
	Address   common.Address
	Signature []byte
}

// Verifier decides whether a caller really signed a digest.
type Verifier interface {
	VerifySigner(caller Caller, digest common.Hash) bool
}

// SignatureVerifier recovers the secp256k1 signer of a 65-byte [R || S || V]
// signature and compares it with the claimed address.
type SignatureVerifier struct{}

func (SignatureVerifier) VerifySigner(caller Caller, digest common.Hash) bool {
	if len(caller.Signature) != crypto.SignatureLength {
		return false
	}
	pub, err := crypto.SigToPub(digest.Bytes(), caller.Signature)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == caller.Address
}

// Digest hashes an operation name and its encoded parameters into the message
// a caller signs.
func Digest(op string, fields ...[]byte) common.Hash {
	parts := make([][]byte, 0, len(fields)+1)
	parts = append(parts, []byte(op))
	parts = append(parts, fields...)
	return crypto.Keccak256Hash(parts...)
}

// U64 encodes v big-endian for use in Digest.
func U64(v uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out
}

// I64 encodes v big-endian for use in Digest.
func I64(v int64) []byte {
	return U64(uint64(v))
}

// Bool encodes v as one byte for use in Digest.
func Bool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// Sign produces a Caller for digest signed by key.
func Sign(key *ecdsa.PrivateKey, digest common.Hash) (Caller, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return Caller{}, fmt.Errorf("sign digest: %w", err)
	}
	return Caller{Address: crypto.PubkeyToAddress(key.PublicKey), Signature: sig}, nil
}

// ParsePrivateKey decodes a hex secp256k1 key with or without 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if len(hexKey) >= 2 && (hexKey[:2] == "0x" || hexKey[:2] == "0X") {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}
