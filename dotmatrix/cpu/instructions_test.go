package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPU_inc(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "increases", arg: 0x0A, want: 0x0B},
		{desc: "sets zero flag", arg: 0xFF, want: 0, flags: zeroFlag | halfCarryFlag},
		{desc: "sets half carry flag", arg: 0x0F, want: 0x10, flags: halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.arg
			cpu.inc(&cpu.a)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_incKeepsCarry(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = uint8(carryFlag)
	cpu.a = 0x01
	cpu.inc(&cpu.a)

	assert.True(t, cpu.isSetFlag(carryFlag))
}

func TestCPU_dec(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "decreases", arg: 0x0A, want: 0x09, flags: subFlag},
		{desc: "sets half carry flag", arg: 0, want: 0xFF, flags: subFlag | halfCarryFlag},
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: subFlag | zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.arg
			cpu.dec(&cpu.a)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_addToA(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		value uint8
		want  uint8
		flags Flag
	}{
		{desc: "adds", a: 0x02, value: 0x03, want: 0x05},
		{desc: "half carry", a: 0x0F, value: 0x01, want: 0x10, flags: halfCarryFlag},
		{desc: "carry and zero", a: 0x01, value: 0xFF, want: 0x00, flags: zeroFlag | carryFlag | halfCarryFlag},
		{desc: "carry only", a: 0xF0, value: 0x20, want: 0x10, flags: carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.addToA(tC.value)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_adcToA(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc    string
		a       uint8
		value   uint8
		carryIn bool
		want    uint8
		flags   Flag
	}{
		{desc: "adds with carry", a: 0x01, value: 0x01, carryIn: true, want: 0x03},
		{desc: "carry in causes half carry", a: 0x0F, value: 0x00, carryIn: true, want: 0x10, flags: halfCarryFlag},
		{desc: "wraps to zero", a: 0xFF, value: 0x00, carryIn: true, want: 0x00, flags: zeroFlag | carryFlag | halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.setFlagToCondition(carryFlag, tC.carryIn)
			cpu.a = tC.a
			cpu.adcToA(tC.value)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_subFromA(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		a     uint8
		value uint8
		want  uint8
		flags Flag
	}{
		{desc: "subtracts", a: 0x05, value: 0x03, want: 0x02, flags: subFlag},
		{desc: "zero", a: 0x05, value: 0x05, want: 0x00, flags: subFlag | zeroFlag},
		{desc: "borrow", a: 0x00, value: 0x01, want: 0xFF, flags: subFlag | carryFlag | halfCarryFlag},
		{desc: "half borrow", a: 0x10, value: 0x01, want: 0x0F, flags: subFlag | halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.subFromA(tC.value)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_sbcFromA(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = uint8(carryFlag)
	cpu.a = 0x10
	cpu.sbcFromA(0x0F)

	assert.Equal(t, uint8(0x00), cpu.a)
	assert.True(t, cpu.isSetFlag(zeroFlag))
	assert.True(t, cpu.isSetFlag(subFlag))
}

func TestCPU_logicOps(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = 0
	cpu.a = 0xF0
	cpu.andWithA(0x0F)
	assert.Equal(t, uint8(0x00), cpu.a)
	assert.Equal(t, uint8(zeroFlag|halfCarryFlag), cpu.f)

	cpu.f = 0
	cpu.a = 0xF0
	cpu.orWithA(0x0F)
	assert.Equal(t, uint8(0xFF), cpu.a)
	assert.Equal(t, uint8(0), cpu.f)

	cpu.f = 0
	cpu.a = 0xFF
	cpu.xorWithA(0xFF)
	assert.Equal(t, uint8(0x00), cpu.a)
	assert.Equal(t, uint8(zeroFlag), cpu.f)
}

func TestCPU_compareA(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = 0
	cpu.a = 0x3C
	cpu.compareA(0x2F)
	assert.Equal(t, uint8(0x3C), cpu.a)
	assert.True(t, cpu.isSetFlag(subFlag))
	assert.True(t, cpu.isSetFlag(halfCarryFlag))
	assert.False(t, cpu.isSetFlag(carryFlag))
	assert.False(t, cpu.isSetFlag(zeroFlag))

	cpu.compareA(0x40)
	assert.True(t, cpu.isSetFlag(carryFlag))
}

func TestCPU_addToHL(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc  string
		hl    uint16
		value uint16
		want  uint16
		flags Flag
	}{
		{desc: "adds", hl: 0x0100, value: 0x0200, want: 0x0300},
		{desc: "half carry from bit 11", hl: 0x0FFF, value: 0x0001, want: 0x1000, flags: halfCarryFlag},
		{desc: "carry", hl: 0xFFFF, value: 0x0001, want: 0x0000, flags: carryFlag | halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.setHL(tC.hl)
			cpu.addToHL(tC.value)
			assert.Equal(t, tC.want, cpu.getHL())
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_addToHLKeepsZero(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = uint8(zeroFlag)
	cpu.setHL(0x0100)
	cpu.addToHL(0x0100)

	assert.True(t, cpu.isSetFlag(zeroFlag))
}

func TestCPU_addSPImmediate(t *testing.T) {
	testCases := []struct {
		desc   string
		sp     uint16
		offset uint8
		want   uint16
		flags  Flag
	}{
		{desc: "positive", sp: 0xFFF8, offset: 0x08, want: 0x0000, flags: carryFlag | halfCarryFlag},
		{desc: "negative", sp: 0x0005, offset: 0xFE, want: 0x0003, flags: carryFlag | halfCarryFlag},
		{desc: "no carries", sp: 0x1000, offset: 0x01, want: 0x1001},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu, bus := newTestCPU()
			cpu.f = 0xF0
			cpu.sp = tC.sp
			cpu.pc = 0xC000
			bus.mem[0xC000] = tC.offset

			got := cpu.addSPImmediate()

			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_daa(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc      string
		a         uint8
		flags     Flag
		want      uint8
		wantCarry bool
	}{
		// 0x27 + 0x15 + carry-in = 0x3D, adjusted to 0x43
		{desc: "after ADC low nibble overflow", a: 0x3D, want: 0x43, wantCarry: false},
		{desc: "after add over 0x99", a: 0x9A, want: 0x00, wantCarry: true},
		{desc: "after add with carry out", a: 0x02, flags: carryFlag, want: 0x62, wantCarry: true},
		{desc: "after subtraction with half borrow", a: 0x0F, flags: subFlag | halfCarryFlag, want: 0x09, wantCarry: false},
		{desc: "after subtraction with borrow", a: 0xA0, flags: subFlag | carryFlag, want: 0x40, wantCarry: true},
		{desc: "no adjustment needed", a: 0x42, want: 0x42, wantCarry: false},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = uint8(tC.flags)
			cpu.a = tC.a
			cpu.daa()
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, tC.wantCarry, cpu.isSetFlag(carryFlag))
			assert.False(t, cpu.isSetFlag(halfCarryFlag))
		})
	}
}

func TestCPU_daaAfterAddSequence(t *testing.T) {
	cpu, _ := newTestCPU()

	// BCD 27 + 15 with carry-in: ADC leaves 0x3D, DAA yields 0x43
	cpu.f = 0
	cpu.a = 0x27
	cpu.setFlag(carryFlag)
	cpu.adcToA(0x15)
	cpu.daa()

	assert.Equal(t, uint8(0x43), cpu.a)
	assert.False(t, cpu.isSetFlag(carryFlag))
}

func TestCPU_rotates(t *testing.T) {
	cpu, _ := newTestCPU()

	testCases := []struct {
		desc    string
		op      func(*CPU, uint8) uint8
		arg     uint8
		carryIn bool
		want    uint8
		flags   Flag
	}{
		{desc: "rlc rotates bit 7 around", op: (*CPU).rlc, arg: 0x80, want: 0x01, flags: carryFlag},
		{desc: "rlc zero", op: (*CPU).rlc, arg: 0x00, want: 0x00, flags: zeroFlag},
		{desc: "rl shifts carry in", op: (*CPU).rl, arg: 0x01, carryIn: true, want: 0x03},
		{desc: "rl sets zero", op: (*CPU).rl, arg: 0x80, want: 0x00, flags: carryFlag | zeroFlag},
		{desc: "rrc rotates bit 0 around", op: (*CPU).rrc, arg: 0x01, want: 0x80, flags: carryFlag},
		{desc: "rr shifts carry in", op: (*CPU).rr, arg: 0x02, carryIn: true, want: 0x81},
		{desc: "sla drops bit 7", op: (*CPU).sla, arg: 0x81, want: 0x02, flags: carryFlag},
		{desc: "sra keeps bit 7", op: (*CPU).sra, arg: 0x81, want: 0xC0, flags: carryFlag},
		{desc: "srl clears bit 7", op: (*CPU).srl, arg: 0x81, want: 0x40, flags: carryFlag},
		{desc: "swap exchanges nibbles", op: (*CPU).swap, arg: 0xAB, want: 0xBA},
		{desc: "swap zero", op: (*CPU).swap, arg: 0x00, want: 0x00, flags: zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.setFlagToCondition(carryFlag, tC.carryIn)

			got := tC.op(cpu, tC.arg)

			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_testBit(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = 0
	cpu.testBit(7, 0x80)
	assert.False(t, cpu.isSetFlag(zeroFlag))
	assert.True(t, cpu.isSetFlag(halfCarryFlag))

	cpu.testBit(6, 0x80)
	assert.True(t, cpu.isSetFlag(zeroFlag))
}

func TestCPU_testBitKeepsCarry(t *testing.T) {
	cpu, _ := newTestCPU()

	cpu.f = uint8(carryFlag)
	cpu.testBit(0, 0x01)

	assert.True(t, cpu.isSetFlag(carryFlag))
}
