package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminal_WritesOneLinePerNotification(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Notify(Notification{Level: Success, Title: "Environment", Message: "switched to TEST"})
	term.Notify(Notification{Level: Error, Message: "order not found"})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "switched to TEST")
	assert.Contains(t, lines[0], "Environment")
	assert.Contains(t, lines[1], "order not found")
	assert.Contains(t, lines[1], strings.TrimSpace(ErrorPrefix))
}

func TestRecorder(t *testing.T) {
	var rec Recorder

	rec.Notify(Notification{Level: Info, Message: "a"})
	rec.Notify(Notification{Level: Warning, Message: "b"})

	got := rec.Notifications()
	assert.Equal(t, []Notification{
		{Level: Info, Message: "a"},
		{Level: Warning, Message: "b"},
	}, got)

	got[0].Message = "changed"
	assert.Equal(t, "a", rec.Notifications()[0].Message, "Notifications must return a copy")

	rec.Reset()
	assert.Empty(t, rec.Notifications())
}

func TestFunc(t *testing.T) {
	var seen Notification
	var n Notifier = Func(func(got Notification) { seen = got })

	n.Notify(Notification{Level: Info, Message: "hello"})
	assert.Equal(t, "hello", seen.Message)

	Discard.Notify(Notification{Message: "dropped"})
}
