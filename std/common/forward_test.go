package common

import (
	"encoding/json"
	"testing"

	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestForwardPayload(t *testing.T) {
	packedJSON := []byte(`{"protected":"abc","iv":"x","ciphertext":"y","tag":"z"}`)
	tests := []struct {
		name   string
		packed []byte
	}{
		{"embedded JSON", packedJSON},
		{"binary", []byte{0, 1, 2, 250, 251}},
		{"text", []byte("not json at all")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			f := NewForward("t", "1", "key", tt.packed)
			data := try.To1(json.Marshal(f))

			var got Forward
			try.To(json.Unmarshal(data, &got))
			assert.Equal(got.To, "key")
			assert.Equal(got.MsgID(), "1")
			assert.DeepEqual(try.To1(got.Payload()), tt.packed)
		})
	}
}

func TestForwardStringifiedJSON(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var f Forward
	try.To(json.Unmarshal([]byte(`{"@type":"t","@id":"2","to":"k","msg":"{\"a\":1}"}`), &f))
	assert.DeepEqual(try.To1(f.Payload()), []byte(`{"a":1}`))
}

func TestForwardEmpty(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	for _, in := range []string{`{"to":"k"}`, `{"to":"k","msg":""}`, `{"to":"k","msg":null}`} {
		var f Forward
		try.To(json.Unmarshal([]byte(in), &f))
		_, err := f.Payload()
		assert.Error(err)
	}
}
