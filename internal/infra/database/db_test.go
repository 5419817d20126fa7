package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_OrDefault(t *testing.T) {
	assert.Equal(t, DefaultPool, Pool{}.orDefault())

	p := Pool{MaxOpen: 3, MaxIdle: 8, MaxLifetime: time.Minute}.orDefault()
	assert.Equal(t, 3, p.MaxOpen)
	assert.Equal(t, 3, p.MaxIdle)
	assert.Equal(t, time.Minute, p.MaxLifetime)
	assert.Equal(t, DefaultPool.MaxIdleTime, p.MaxIdleTime)
}
