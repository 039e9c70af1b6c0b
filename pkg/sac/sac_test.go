package sac

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
)

const (
	testKey = "000102030405060708090a0b0c0d0e0f"
	testIV  = "f0e0d0c0b0a090807060504030201000"
)

func encrypt(t *testing.T, plain []byte) []byte {
	key, _ := hex.DecodeString(testKey)
	iv, _ := hex.DecodeString(testIV)
	block, err := aes.NewCipher(key)
	assert.Equal(t, nil, err)
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return out
}

func TestParseKey(t *testing.T) {
	b, err := ParseKey(testKey)
	assert.Equal(t, nil, err)
	assert.Equal(t, 16, len(b))

	_, err = ParseKey("0011")
	assert.Equal(t, true, errors.Is(err, ErrKeyMaterial))

	_, err = ParseKey("zz0102030405060708090a0b0c0d0e0f")
	assert.Equal(t, true, errors.Is(err, ErrKeyMaterial))
}

func TestAESCBC_RoundTrip(t *testing.T) {
	plain := []byte("0123456789abcdef0123456789abcdef")
	d, err := NewAESCBC(testKey, testIV)
	assert.Equal(t, nil, err)

	out, err := d.Decrypt(CipherAES128CBC, encrypt(t, plain))
	assert.Equal(t, nil, err)
	assert.Equal(t, plain, out)
}

func TestAESCBC_Failures(t *testing.T) {
	d, _ := NewAESCBC(testKey, testIV)

	_, err := d.Decrypt(1, make([]byte, 16))
	assert.Equal(t, true, errors.Is(err, ErrCipher))

	_, err = d.Decrypt(CipherAES128CBC, make([]byte, 15))
	assert.Equal(t, true, errors.Is(err, ErrCiphertextLen))

	_, err = d.Decrypt(CipherAES128CBC, nil)
	assert.Equal(t, true, errors.Is(err, ErrCiphertextLen))
}

func TestNew_Unavailable(t *testing.T) {
	d := New("", "")
	_, ok := d.(Unavailable)
	assert.Equal(t, true, ok)
	_, err := d.Decrypt(CipherAES128CBC, make([]byte, 16))
	assert.Equal(t, true, errors.Is(err, ErrKeyMaterial))

	_, ok = New(testKey, testIV).(*AESCBC)
	assert.Equal(t, true, ok)
}
