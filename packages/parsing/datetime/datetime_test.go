package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*3600)

func TestCombine(t *testing.T) {
	t.Run("date and time", func(t *testing.T) {
		ts := Combine("230115", "0930", msk)
		require.NotNil(t, ts)
		assert.Equal(t, time.Date(2023, 1, 15, 9, 30, 0, 0, msk), *ts)
	})

	t.Run("midnight as 2400", func(t *testing.T) {
		ts := Combine("230115", "2400", msk)
		require.NotNil(t, ts)
		assert.Equal(t, 23, ts.Hour())
		assert.Equal(t, 59, ts.Minute())
		assert.Equal(t, 15, ts.Day())
	})

	t.Run("missing parts", func(t *testing.T) {
		assert.Nil(t, Combine("", "0930", msk))
		assert.Nil(t, Combine("230115", "", msk))
		assert.Nil(t, Combine("", "", msk))
	})

	t.Run("malformed input", func(t *testing.T) {
		assert.Nil(t, Combine("2301", "0930", msk))
		assert.Nil(t, Combine("230115", "99", msk))
		assert.Nil(t, Combine("abcdef", "0930", msk))
	})
}
