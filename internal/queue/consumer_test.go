package queue

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/model"
)

func TestActivityLogAppendsOneLinePerEvent(t *testing.T) {
	activity := NewActivityLog(t.TempDir() + "/logs")
	at := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	pos := 1
	for _, ev := range []model.ChangeEvent{
		{Entity: model.EntityShow, ID: "s1", ShowID: "s1", NewState: "live", At: at},
		{Entity: model.EntityRequest, ID: "r1", ShowID: "s1", NewState: "pending", Flagged: true, Position: &pos, At: at},
	} {
		body, err := Encode(ev)
		require.NoError(t, err)
		require.NoError(t, activity.Handle(body))
	}

	data, err := os.ReadFile(activity.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2026-03-14T21:00:00Z] show s1 | show_id=s1 | state=live | flagged=false | position=-", lines[0])
	assert.Contains(t, lines[1], "request r1")
	assert.Contains(t, lines[1], "flagged=true | position=1")
}

func TestActivityLogRejectsMalformed(t *testing.T) {
	activity := NewActivityLog(t.TempDir())
	assert.Error(t, activity.Handle([]byte(`{"entity":"show"}`)))
	_, err := os.Stat(activity.Path())
	assert.True(t, os.IsNotExist(err))
}
