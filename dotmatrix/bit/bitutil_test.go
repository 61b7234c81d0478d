package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.Equal(t, uint16(0xABCD), Combine(0xAB, 0xCD))
	assert.Equal(t, uint8(0xAB), High(0xABCD))
	assert.Equal(t, uint8(0xCD), Low(0xABCD))
}

func TestBitOps(t *testing.T) {
	testCases := []struct {
		desc  string
		index uint8
		value uint8
		isSet bool
		set   uint8
		reset uint8
	}{
		{desc: "bit 0", index: 0, value: 0b0001, isSet: true, set: 0b0001, reset: 0b0000},
		{desc: "bit 3", index: 3, value: 0b0001, isSet: false, set: 0b1001, reset: 0b0001},
		{desc: "bit 7", index: 7, value: 0xFF, isSet: true, set: 0xFF, reset: 0x7F},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.isSet, IsSet(tC.index, tC.value))
			assert.Equal(t, tC.set, Set(tC.index, tC.value))
			assert.Equal(t, tC.reset, Reset(tC.index, tC.value))
		})
	}
}
