package airq

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixtures were produced with
//
//	openssl enc -aes-256-cbc -K <hex key> -iv 000102030405060708090a0b0c0d0e0f
//
// and base64(IV || ciphertext), matching the firmware wire format.
const (
	fixturePassword = "password"

	fixtureConfigJSON = `{"id":"0123456789abcdef0123456789abcdef","devicename":"Living Room","type":"air-Q Pro","RoomType":"living-room","air-Q-Software-Version":"1.80.0","air-Q-Hardware-Version":"D_1.4","TimeServer":"pool.ntp.org","cloudRemote":true,"possibleLedTheme":["standard","CO2","VOC"],"ledTheme":{"left":"CO2","right":"standard"}}`
	fixtureConfig     = "AAECAwQFBgcICQoLDA0OD8MwC3N/mxGZgNesUkhOIcXepf2z3+ooQA+Xp9oOlCjzmgjxE27wwKUtxHaZTIKM4BxU0hgHQrqk/PQyIqN9risEf6Qe1FOrAnt38X9qZHvL0xvNNIGlc3+jzRvmnZNP5lkLDHgW2Oyz8JiEgZuSfXuCvStZYQggRUDYgTfZECGWKziIDrV4hqcT0pX7Re81DN5Zi+auTAUhsP+nOAGwHV2Wp1MD4uuJrzs5OS0obX6JUUmgWI1nP/v0KfOqFV/+6rLa0tBF9PUOS4fsEKy2GCIeBErjEGUDectvwJg+lLZJQzfRMNBL+vFb3CXJvdDsytmDn9DNGQe4+GVG5Kz+ExusKPSwKikvlA4tRG+aWAgkYPlGWyTa6kJf0A8icl9b/zm7fLKNcm/nIasqTcXvhOxvmkuYfNu1GJpF9iHkTudp"

	fixtureDataJSON = `{"timestamp":1621223828000,"Status":"OK","co2":[604.0,68.1],"pm1_SPS30":[0,10],"temperature":[-0.5,0.6],"humidity":[63.0,4.0]}`
	fixtureData     = "AAECAwQFBgcICQoLDA0OD3VISFRtDCd6ujG90bquxiqjevbcXGQibaguXpz6C3T4hR7MUev9Bq1H8Q64x3vVT+ceHFPe7EQfj5BoQorpn/1/aWpy5A9man1plCFqXJ70anGfie3fX+wACiO6BjdLPFZLFR1cpz1QXb1Hlwn/J6N6jgbeXaw05xo6acNp/dqp"

	fixtureAverageJSON = `{"timestamp":1621223828000,"Status":"OK","co2":[598.2,67.5],"humidity":[62.5,4.0]}`
	fixtureAverage     = "AAECAwQFBgcICQoLDA0OD3VISFRtDCd6ujG90bquxiqjevbcXGQibaguXpz6C3T4hR7MUev9Bq1H8Q64x3vVTzlUTNWEb+oumi4nX752hpSLsDZw4968ewRYgs8yAMDEgY2wPyB5KLW3Ot5fWKQGdA=="

	fixturePing = "AAECAwQFBgcICQoLDA0ODwE+G0MXWFqt7uFs4M7/m4UlKn6h3mO70qtiWMRYzgPbe1pq+Lq5NU57x1iujOIidrhs+DeTmnFnNCQFvsZsdAQ="
	fixtureLog  = "AAECAwQFBgcICQoLDA0OD+T5VlNp4QGja3CZCOOytq8UVcDFC/IYco5uNYxlmkoGfagCI9rGxyxePJw36QprbA=="

	fixtureSuccess = "AAECAwQFBgcICQoLDA0OD9T/6478h5vky/7h8Qud6NGL0RY9y6hSs8IYhyC6dPL/7QkxDjEe2SSvB0aUbZCxwYcxr1spiFv8IdSsS1oVFvg="
	fixtureError   = "AAECAwQFBgcICQoLDA0ODwV25QaAs5mFBcA8lBkKzlwStRmnrLKx9N7Ja66oazK5KrhEWPC8Gqf5Kr5pNSdj1w=="

	// Plaintext "not json at all", validly padded.
	fixtureNotJSON = "AAECAwQFBgcICQoLDA0OD8zVo4ma3Q1SLy9UY7Lj30E="
)

var fixtureIV = []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

func TestDeriveKey_ShortPasswordPaddedWithZeroDigits(t *testing.T) {
	key := DeriveKey(fixturePassword)

	expected := "70617373776f7264" + strings.Repeat("30", 24)
	assert.Equal(t, expected, hex.EncodeToString(key[:]))
}

func TestDeriveKey_LongPasswordTruncated(t *testing.T) {
	password := strings.Repeat("abcdefgh", 5) // 40 bytes

	key := DeriveKey(password)

	assert.Equal(t, password[:KeySize], string(key[:]))
}

func TestDeriveKey_EmptyPassword(t *testing.T) {
	key := DeriveKey("")

	assert.Equal(t, strings.Repeat("0", KeySize), string(key[:]))
}

func TestDecrypt_FirmwareFixture(t *testing.T) {
	c, err := NewCipher(fixturePassword)
	require.NoError(t, err)

	tests := []struct {
		name     string
		encoded  string
		expected string
	}{
		{"config", fixtureConfig, fixtureConfigJSON},
		{"data", fixtureData, fixtureDataJSON},
		{"average", fixtureAverage, fixtureAverageJSON},
		{"command reply", fixtureSuccess, `"Success: new setting saved for key 'devicename'"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext, err := c.Decrypt(tt.encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(plaintext))
		})
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	c, err := NewCipher("hunter2")
	require.NoError(t, err)

	for _, encoded := range []string{fixtureConfig, fixtureData, fixtureAverage} {
		_, err := c.Decrypt(encoded)
		assert.ErrorIs(t, err, ErrInvalidPadding)
	}
}

func TestDecrypt_Truncated(t *testing.T) {
	c, err := NewCipher(fixturePassword)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(fixtureData)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"iv only", raw[:IVSize]},
		{"partial iv", raw[:7]},
		{"partial block", raw[:len(raw)-5]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(base64.StdEncoding.EncodeToString(tt.raw))
			assert.ErrorIs(t, err, ErrCiphertextLength)
		})
	}
}

func TestDecrypt_InvalidBase64(t *testing.T) {
	c, err := NewCipher(fixturePassword)
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64")
}

func TestEncryptWithIV_MatchesFirmwareFixture(t *testing.T) {
	c, err := NewCipher(fixturePassword)
	require.NoError(t, err)

	assert.Equal(t, fixtureData, c.encryptWithIV([]byte(fixtureDataJSON), fixtureIV))
}

func TestEncrypt_RoundTrip(t *testing.T) {
	c, err := NewCipher("s3cret")
	require.NoError(t, err)

	for _, plaintext := range []string{"", "{}", strings.Repeat("x", 16), `{"devicename":"Küche"}`} {
		encoded, err := c.Encrypt([]byte(plaintext))
		require.NoError(t, err)

		decoded, err := c.Decrypt(encoded)
		require.NoError(t, err)
		assert.Equal(t, plaintext, string(decoded))
	}
}

func TestEncrypt_RandomIV(t *testing.T) {
	c, err := NewCipher("s3cret")
	require.NoError(t, err)

	a, err := c.Encrypt([]byte("{}"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("{}"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPKCS7Unpad(t *testing.T) {
	valid := append([]byte("0123456789ab"), 4, 4, 4, 4)
	out, err := pkcs7Unpad(valid, 16)
	require.NoError(t, err)
	assert.Equal(t, "0123456789ab", string(out))

	full := append([]byte(nil), []byte(strings.Repeat("\x10", 16))...)
	out, err = pkcs7Unpad(full, 16)
	require.NoError(t, err)
	assert.Empty(t, out)

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"zero pad byte", append([]byte("0123456789abcde"), 0), ErrInvalidPadding},
		{"pad too large", append([]byte("0123456789abcde"), 17), ErrInvalidPadding},
		{"inconsistent", append([]byte("0123456789ab"), 1, 4, 4, 4), ErrInvalidPadding},
		{"not block aligned", []byte("abc"), ErrCiphertextLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkcs7Unpad(tt.data, 16)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
