package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/model"
)

func TestEncodeDecode(t *testing.T) {
	pos := 2
	ev := model.ChangeEvent{Entity: model.EntityRequest, ID: "r1", ShowID: "s1", NewState: "pending",
		Position: &pos, At: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)}
	body, err := Encode(ev)
	require.NoError(t, err)
	got, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, body := range []string{
		`{"entity":"setlist","id":"1","show_id":"2"}`,
		`{"entity":"show","show_id":"2"}`,
	} {
		_, err := Decode([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedEvent, body)
	}
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}
