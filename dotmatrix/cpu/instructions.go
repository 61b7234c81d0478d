package cpu

import "github.com/marzari/dotmatrix/dotmatrix/bit"

func (c *CPU) pushStack(value uint16) {
	c.sp -= 2
	c.bus.Write(c.sp, bit.Low(value))
	c.bus.Write(c.sp+1, bit.High(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	high := c.bus.Read(c.sp + 1)
	c.sp += 2
	return bit.Combine(high, low)
}

// inc increments a register. Carry is untouched.
func (c *CPU) inc(r *uint8) {
	c.setFlagToCondition(halfCarryFlag, *r&0xF == 0xF)
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.resetFlag(subFlag)
}

// dec decrements a register. Carry is untouched.
func (c *CPU) dec(r *uint8) {
	c.setFlagToCondition(halfCarryFlag, *r&0xF == 0)
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlag(subFlag)
}

// addToA adds value to A, setting all four flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value) > 0xFF)

	c.a = result
}

// adcToA adds value plus the carry flag to A.
func (c *CPU) adcToA(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a + value + carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value)+uint16(carry) > 0xFF)

	c.a = result
}

// subFromA subtracts value from A.
func (c *CPU) subFromA(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF)
	c.setFlagToCondition(carryFlag, a < value)

	c.a = result
}

// sbcFromA subtracts value and the carry flag from A.
func (c *CPU) sbcFromA(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a - value - carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, uint16(a&0xF) < uint16(value&0xF)+uint16(carry))
	c.setFlagToCondition(carryFlag, uint16(a) < uint16(value)+uint16(carry))

	c.a = result
}

// andWithA ANDs value into A. H is always set.
func (c *CPU) andWithA(value uint8) {
	c.a &= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// orWithA ORs value into A.
func (c *CPU) orWithA(value uint8) {
	c.a |= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// xorWithA XORs value into A.
func (c *CPU) xorWithA(value uint8) {
	c.a ^= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// compareA performs SUB flags without storing the result.
func (c *CPU) compareA(value uint8) {
	a := c.a
	c.setFlagToCondition(zeroFlag, a == value)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF)
	c.setFlagToCondition(carryFlag, a < value)
}

// addToHL adds a 16 bit value to HL. Z is untouched.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0xFFF)+(value&0xFFF) > 0xFFF)
	c.setFlagToCondition(carryFlag, uint32(hl)+uint32(value) > 0xFFFF)

	c.setHL(hl + value)
}

// addSPImmediate computes SP + e8 with the byte-wise carry semantics
// shared by ADD SP,e8 and LD HL,SP+e8. Z and N are cleared.
func (c *CPU) addSPImmediate() uint16 {
	offset := c.readSignedImmediate()
	sp := c.sp
	result := sp + uint16(int16(offset))

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (sp&0xF)+(uint16(uint8(offset))&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, (sp&0xFF)+uint16(uint8(offset)) > 0xFF)

	return result
}

// daa decimal-adjusts A after BCD arithmetic, following the Pan Docs
// table: after an addition the adjustment re-examines A, after a
// subtraction it is driven by H and C alone.
func (c *CPU) daa() {
	a := c.a
	adjust := uint8(0)
	carry := c.isSetFlag(carryFlag)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if carry || c.a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)

	c.a = a
}

// rlc rotates left, bit 7 into carry and bit 0. Z is set by the result.
func (c *CPU) rlc(value uint8) uint8 {
	result := value<<1 | value>>7
	c.setRotateFlags(result, value&0x80 != 0)
	return result
}

// rl rotates left through carry.
func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)
	c.setRotateFlags(result, value&0x80 != 0)
	return result
}

// rrc rotates right, bit 0 into carry and bit 7.
func (c *CPU) rrc(value uint8) uint8 {
	result := value>>1 | value<<7
	c.setRotateFlags(result, value&0x01 != 0)
	return result
}

// rr rotates right through carry.
func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.setRotateFlags(result, value&0x01 != 0)
	return result
}

// sla shifts left into carry.
func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setRotateFlags(result, value&0x80 != 0)
	return result
}

// sra shifts right arithmetically, keeping bit 7.
func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setRotateFlags(result, value&0x01 != 0)
	return result
}

// srl shifts right logically.
func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setRotateFlags(result, value&0x01 != 0)
	return result
}

// swap exchanges the nibbles.
func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setRotateFlags(result, false)
	return result
}

func (c *CPU) setRotateFlags(result uint8, carryOut bool) {
	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carryOut)
}

// testBit implements BIT b: Z mirrors the complement of the tested bit.
func (c *CPU) testBit(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// jr adds the signed immediate displacement to PC. The displacement is
// relative to the instruction after JR, so a -128 offset at 0x0080 lands
// at 0x0002.
func (c *CPU) jr() {
	offset := c.readSignedImmediate()
	c.pc += uint16(int16(offset))
}

// jp jumps to the immediate address.
func (c *CPU) jp() {
	c.pc = c.readImmediateWord()
}

// call pushes the return address and jumps to the immediate address.
func (c *CPU) call() {
	target := c.readImmediateWord()
	c.pushStack(c.pc)
	c.pc = target
}

// ret pops PC.
func (c *CPU) ret() {
	c.pc = c.popStack()
}

// rst pushes PC and jumps to one of the fixed vectors.
func (c *CPU) rst(vector uint16) {
	c.pushStack(c.pc)
	c.pc = vector
}
