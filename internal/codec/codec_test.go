package codec

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		aid  uint64
		bvid string
	}{
		{"Reference vector", 111298867365120, "BV1L9Uoa9EUx"},
		{"Zero", 0, "BV1xx411c7mX"},
		{"One", 1, "BV1xx411c7mQ"},
		{"Classic aid", 170001, "BV17x411w7KC"},
		{"Ten-digit aid", 1003283555, "BV18x4y187DE"},
		{"Max aid", MaxAID - 1, "BV1aPPTfmvQq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bvid, err := Encode(tt.aid)
			require.NoError(t, err)
			assert.Equal(t, tt.bvid, bvid)

			aid, err := Decode(tt.bvid)
			require.NoError(t, err)
			assert.Equal(t, tt.aid, aid)
		})
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	for _, aid := range []uint64{MaxAID, MaxAID + 1, 1 << 63, ^uint64(0)} {
		_, err := Encode(aid)
		assert.ErrorIs(t, err, ErrOutOfRange, "aid %d", aid)
	}
}

func TestMustEncode(t *testing.T) {
	assert.Equal(t, "BV1L9Uoa9EUx", MustEncode(111298867365120))
	assert.Panics(t, func() { MustEncode(MaxAID) })
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	values := []uint64{0, 1, 57, 58, 58 * 58, XORMask, BitMask, MaxAID - 2, MaxAID - 1}
	for i := 0; i < 2000; i++ {
		values = append(values, uint64(rnd.Int63n(int64(MaxAID))))
	}

	for _, aid := range values {
		bvid, err := Encode(aid)
		require.NoError(t, err)

		assert.Len(t, bvid, Length)
		assert.True(t, strings.HasPrefix(bvid, Prefix), "bvid %s", bvid)
		for _, c := range bvid[len(Prefix):] {
			assert.True(t, strings.ContainsRune(Alphabet, c), "character %q of %s outside alphabet", c, bvid)
		}

		decoded, err := Decode(bvid)
		require.NoError(t, err)
		assert.Equal(t, aid, decoded)

		again, err := Encode(decoded)
		require.NoError(t, err)
		assert.Equal(t, bvid, again)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name        string
		bvid        string
		expectedErr error
	}{
		{"Wrong prefix", "XX1234567890", ErrInvalidFormat},
		{"Lowercase prefix", "bv1L9Uoa9EUx", ErrInvalidFormat},
		{"Empty", "", ErrInvalidFormat},
		{"Too short", "BV1L9Uoa9EU", ErrInvalidFormat},
		{"Too long", "BV1L9Uoa9EUxx", ErrInvalidFormat},
		{"Prefix only", "BV1", ErrInvalidFormat},
		{"Zero digit", "BV1000000000", ErrInvalidCharacter},
		{"Letter l", "BV1L9Uoa9EUl", ErrInvalidCharacter},
		{"Letter I", "BV1I9Uoa9EUx", ErrInvalidCharacter},
		{"Letter O", "BV1L9UOa9EUx", ErrInvalidCharacter},
		{"Non-ASCII", "BV1L9Uoa9EU\xff", ErrInvalidCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aid, err := Decode(tt.bvid)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Zero(t, aid)
			assert.False(t, IsValid(tt.bvid))
		})
	}
}

func TestDecode_ResultInRange(t *testing.T) {
	// любое тело из алфавита декодируется в значение меньше 2^51
	for _, bvid := range []string{"BV1FFFFFFFFF", "BV1fffffffff", "BV1ZZZZZZZZZ", "BV1ccccccccc"} {
		aid, err := Decode(bvid)
		require.NoError(t, err, bvid)
		assert.Less(t, aid, MaxAID)
	}
}

func TestConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(offset uint64) {
			defer wg.Done()
			for i := uint64(0); i < 500; i++ {
				aid := offset*1_000_003 + i
				bvid, err := Encode(aid)
				if !assert.NoError(t, err) {
					return
				}
				decoded, err := Decode(bvid)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, aid, decoded)
			}
		}(uint64(g))
	}
	wg.Wait()
}
