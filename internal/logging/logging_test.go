package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	previous := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(previous) })

	Init("debug")
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	Init("loud")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
