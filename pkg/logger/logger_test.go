package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("not-a-level", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l = New("debug", "json")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestWithRequestOmitsAnonymousUser(t *testing.T) {
	l := New("info", "text")

	entry := WithRequest(l, "req-1", 0)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	_, ok := entry.Data["user_id"]
	assert.False(t, ok)

	entry = WithRequest(l, "req-2", 42)
	assert.Equal(t, int64(42), entry.Data["user_id"])
}
