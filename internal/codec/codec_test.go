package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		plain string
	}{
		{"empty", ""},
		{"ascii", "hello world"},
		{"json array", `[{"id":"desktop-1","filename":"a.jpg","size":1024}]`},
		{"unicode", "壁纸分类 — ściana, обои"},
		{"punctuation", "a+b/c=d&e?f#g"},
		{"long", string(make([]byte, 4096))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blob := Encode([]byte(tc.plain))
			require.True(t, IsEncoded(blob))

			plain, err := Decode(blob)
			require.NoError(t, err)
			assert.Equal(t, tc.plain, string(plain))
		})
	}
}

func TestEncodeProducesMarker(t *testing.T) {
	blob := Encode([]byte("x"))
	assert.Equal(t, VersionPrefix, blob[:len(VersionPrefix)])
}

func TestEncodeObfuscates(t *testing.T) {
	plain := `{"wallpapers":[]}`
	blob := Encode([]byte(plain))
	assert.NotContains(t, blob, "wallpapers")
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"no marker", "just some text"},
		{"unknown version", "zz:abcdef"},
		{"malformed payload", VersionPrefix + "!!!: not base64 :!!!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.blob)
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr))
		})
	}
}

func TestIsEncoded(t *testing.T) {
	assert.True(t, IsEncoded(Encode([]byte("data"))))
	assert.False(t, IsEncoded(`{"plain":"json"}`))
	assert.False(t, IsEncoded("zz:unknown-marker"))
	assert.False(t, IsEncoded(""))
}
