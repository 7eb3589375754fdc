package airq

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

const (
	// KeySize is the AES-256 key length expected by the firmware.
	KeySize = 32

	// IVSize is the length of the IV prefixed to every payload.
	IVSize = aes.BlockSize

	// keyPadByte is appended to short passwords. It is the ASCII digit
	// zero, not a NUL byte.
	keyPadByte = '0'
)

// DeriveKey turns a device password into the AES-256 key used by the
// firmware: the UTF-8 bytes of the password, right-padded with '0' or
// truncated to KeySize bytes.
func DeriveKey(password string) [KeySize]byte {
	var key [KeySize]byte
	n := copy(key[:], password)
	for i := n; i < KeySize; i++ {
		key[i] = keyPadByte
	}
	return key
}

// Cipher encrypts and decrypts device payloads. It is immutable and safe
// for concurrent use.
type Cipher struct {
	block cipher.Block
}

// NewCipher derives the key from password and prepares the block cipher.
func NewCipher(password string) (*Cipher, error) {
	key := DeriveKey(password)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}
	return &Cipher{block: block}, nil
}

// Decrypt decodes base64(IV || ciphertext) and returns the unpadded
// plaintext. Padding and UTF-8 failures wrap ErrInvalidPadding and
// ErrInvalidUTF8; malformed input wraps ErrCiphertextLength.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) < IVSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCiphertextLength, len(raw))
	}

	iv, ciphertext := raw[:IVSize], raw[IVSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the block size", ErrCiphertextLength, len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(plaintext) {
		return nil, ErrInvalidUTF8
	}
	return plaintext, nil
}

// Encrypt pads plaintext, encrypts it under a random IV and returns
// base64(IV || ciphertext).
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	return c.encryptWithIV(plaintext, iv), nil
}

func (c *Cipher) encryptWithIV(plaintext, iv []byte) string {
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, IVSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[IVSize:], padded)
	return base64.StdEncoding.EncodeToString(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - (len(data) % blockSize)
	padding := bytes.Repeat([]byte{byte(pad)}, pad)
	out := make([]byte, 0, len(data)+pad)
	out = append(out, data...)
	return append(out, padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrCiphertextLength
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, ErrInvalidPadding
	}
	for i := 0; i < pad; i++ {
		if data[len(data)-1-i] != byte(pad) {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-pad], nil
}
