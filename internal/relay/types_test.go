package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_DecodesNumbersAndStrings(t *testing.T) {
	cases := map[string]Timestamp{
		`1700000000000`:       "1700000000000",
		`"1700000000000"`:     "1700000000000",
		`1712345678901234567`: "1712345678901234567",
		`null`:                "",
		`"not-a-number"`:      "not-a-number",
	}
	for input, want := range cases {
		var got Timestamp
		require.NoError(t, json.Unmarshal([]byte(input), &got), input)
		assert.Equal(t, want, got, input)
	}

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestTimestamp_Time(t *testing.T) {
	ms, ok := Timestamp("1700000000000").Time()
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000), ms)

	ns, ok := Timestamp("1700000000000000000").Time()
	require.True(t, ok)
	assert.Equal(t, time.Unix(0, 1700000000000000000), ns)

	_, ok = Timestamp("abc").Time()
	assert.False(t, ok)
}

func TestTimestampAt(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, Timestamp("1700000000123"), TimestampAt(at))
}

func TestPayload_MalformedIsKeptRaw(t *testing.T) {
	text, ok := DecodePayload(EncodePayload("héllo"))
	assert.True(t, ok)
	assert.Equal(t, "héllo", text)

	text, ok = Message{Payload: "%%%"}.Text()
	assert.False(t, ok)
	assert.Equal(t, "%%%", text)
}
