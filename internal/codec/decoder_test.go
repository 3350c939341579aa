package codec

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestInlineDecoderEncodedBlob(t *testing.T) {
	blob := Encode([]byte(`{"name":"nature","count":5}`))

	var got payload
	err := InlineDecoder{}.DecodeAndParse(context.Background(), blob, &got)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "nature", Count: 5}, got)
}

func TestInlineDecoderPlainJSONFallback(t *testing.T) {
	// Payloads without a version marker are treated as plain JSON
	var got payload
	err := InlineDecoder{}.DecodeAndParse(context.Background(), `{"name":"city","count":2}`, &got)
	require.NoError(t, err)
	assert.Equal(t, "city", got.Name)
}

func TestPoolDecoderSmallPayloadInline(t *testing.T) {
	d := NewPoolDecoder(1, 1<<20, nil) // Threshold too high for any test payload
	defer d.Close()

	var got payload
	err := d.DecodeAndParse(context.Background(), Encode([]byte(`{"name":"a","count":1}`)), &got)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestPoolDecoderLargePayload(t *testing.T) {
	d := NewPoolDecoder(2, 1, nil) // Everything goes through the pool
	defer d.Close()

	big, err := json.Marshal(map[string]string{"name": strings.Repeat("x", 4096)})
	require.NoError(t, err)
	blob := Encode(big)

	var got map[string]string
	require.NoError(t, d.DecodeAndParse(context.Background(), blob, &got))
	assert.Len(t, got["name"], 4096)
}

func TestPoolDecoderConcurrentCalls(t *testing.T) {
	d := NewPoolDecoder(2, 1, nil)
	defer d.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got payload
			err := d.DecodeAndParse(context.Background(), Encode([]byte(`{"name":"n","count":7}`)), &got)
			assert.NoError(t, err)
			assert.Equal(t, 7, got.Count)
		}()
	}
	wg.Wait()
}

func TestPoolDecoderDecodeError(t *testing.T) {
	d := NewPoolDecoder(1, 1, nil)
	defer d.Close()

	var got payload
	err := d.DecodeAndParse(context.Background(), "zz:not-a-real-blob", &got)
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}
