package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type limiterConfig struct {
	Max    int64
	Prefix string
}

func TestMap2Struct(t *testing.T) {
	var cfg limiterConfig
	err := Map2Struct(map[string]interface{}{"max": int64(5), "prefix": "p "}, &cfg)
	assert.Nil(t, err)
	assert.Equal(t, int64(5), cfg.Max)
	assert.Equal(t, "p ", cfg.Prefix)

	// A nil input leaves the output untouched.
	cfg = limiterConfig{Max: 1}
	assert.Nil(t, Map2Struct(nil, &cfg))
	assert.Equal(t, int64(1), cfg.Max)
}

func TestMap2StructWeakly(t *testing.T) {
	// JSON numbers decode as float64; the weak decoder converts them.
	var cfg limiterConfig
	err := Map2StructWeakly(map[string]interface{}{"max": float64(7)}, &cfg)
	assert.Nil(t, err)
	assert.Equal(t, int64(7), cfg.Max)

	err = Map2StructWeakly(map[string]interface{}{"max": "9"}, &cfg)
	assert.Nil(t, err)
	assert.Equal(t, int64(9), cfg.Max)
}
