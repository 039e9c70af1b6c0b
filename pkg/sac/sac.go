// Package sac provides the AES-128-CBC decryption used by the content
// control secure authenticated channel.
package sac

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrKeyMaterial   = errors.New("dvbci.sac: key material missing or malformed")
	ErrCipher        = errors.New("dvbci.sac: unsupported encryption cipher")
	ErrCiphertextLen = errors.New("dvbci.sac: ciphertext is not a multiple of the block size")
)

// KeySize is the AES-128 key and IV size in bytes
const KeySize = 16

// CipherAES128CBC is the only encryption cipher id defined for SAC
const CipherAES128CBC uint8 = 0

// Decrypter turns SAC ciphertext into plaintext
type Decrypter interface {
	Decrypt(cipherID uint8, ciphertext []byte) ([]byte, error)
}

// ParseKey decodes a key or IV given as exactly 32 hex characters
func ParseKey(s string) ([]byte, error) {
	if len(s) != 2*KeySize {
		return nil, fmt.Errorf("%w. need %d hex characters, got %d", ErrKeyMaterial, 2*KeySize, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w. %v", ErrKeyMaterial, err)
	}
	return b, nil
}

// AESCBC decrypts with a fixed key and IV
type AESCBC struct {
	block cipher.Block
	iv    []byte
}

// NewAESCBC creates a decrypter from hex key material
func NewAESCBC(keyHex, ivHex string) (*AESCBC, error) {
	key, err := ParseKey(keyHex)
	if err != nil {
		return nil, err
	}
	iv, err := ParseKey(ivHex)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w. %v", ErrKeyMaterial, err)
	}
	return &AESCBC{block: block, iv: iv}, nil
}

// Decrypt decrypts ciphertext. Every message restarts the chain at the
// configured IV.
func (a *AESCBC) Decrypt(cipherID uint8, ciphertext []byte) ([]byte, error) {
	if cipherID != CipherAES128CBC {
		return nil, fmt.Errorf("%w. cipher=%d", ErrCipher, cipherID)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w. len=%d", ErrCiphertextLen, len(ciphertext))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(a.block, a.iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// Unavailable is the decrypter used when no usable key material was
// configured. It always fails.
type Unavailable struct {
	Reason error
}

// Decrypt always fails
func (u Unavailable) Decrypt(cipherID uint8, ciphertext []byte) ([]byte, error) {
	if u.Reason != nil {
		return nil, u.Reason
	}
	return nil, ErrKeyMaterial
}

// New returns an AESCBC decrypter, or Unavailable when the key material
// does not parse
func New(keyHex, ivHex string) Decrypter {
	d, err := NewAESCBC(keyHex, ivHex)
	if err != nil {
		return Unavailable{Reason: err}
	}
	return d
}
