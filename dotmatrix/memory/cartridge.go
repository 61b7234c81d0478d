package memory

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	logoAddress           = 0x0104
	titleAddress          = 0x0134
	titleLength           = 16
	cartridgeTypeAddress  = 0x0147
	romSizeAddress        = 0x0148
	ramSizeAddress        = 0x0149
	headerChecksumAddress = 0x014D
	headerEnd             = 0x0150
)

// Fatal load conditions. A cartridge that fails these refuses to power on.
var (
	ErrROMTooSmall    = errors.New("ROM image smaller than the cartridge header")
	ErrBadLogo        = errors.New("Nintendo logo mismatch in cartridge header")
	ErrBadChecksum    = errors.New("cartridge header checksum mismatch")
	ErrUnsupportedMBC = errors.New("unsupported cartridge type")
)

// nintendoLogo is the 48-byte bitmap every licensed cartridge carries at
// 0x0104. The boot ROM refuses to start without it, and so do we.
var nintendoLogo = []byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0C, 0x00, 0x0D, 0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99, 0xBB, 0xBB, 0x67, 0x63,
	0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// MBCType identifies the mapper declared by the cartridge header.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC2Type
	MBC3Type
	MBC5Type
)

// Cartridge owns the ROM image and the header metadata parsed from it.
type Cartridge struct {
	data []byte

	title        string
	cartType     uint8
	mbcType      MBCType
	romSizeCode  uint8
	ramSizeCode  uint8
	ramBankCount uint8
	hasBattery   bool
}

// NewCartridge creates an empty cartridge, equivalent to powering on the
// console with nothing inserted. Useful for tests.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data: make([]byte, 0x8000),
	}
}

// NewCartridgeWithData parses and validates a ROM image. It returns an
// error for every fatal-load condition: a truncated header, a logo
// mismatch, a checksum mismatch or a mapper we cannot emulate.
func NewCartridgeWithData(data []byte) (*Cartridge, error) {
	if len(data) < headerEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(data))
	}

	if !bytes.Equal(data[logoAddress:logoAddress+len(nintendoLogo)], nintendoLogo) {
		return nil, ErrBadLogo
	}

	if sum := headerChecksum(data); sum != data[headerChecksumAddress] {
		return nil, fmt.Errorf("%w: computed 0x%02X, header declares 0x%02X",
			ErrBadChecksum, sum, data[headerChecksumAddress])
	}

	cart := &Cartridge{
		data:        make([]byte, len(data)),
		title:       cleanTitle(data[titleAddress : titleAddress+titleLength]),
		cartType:    data[cartridgeTypeAddress],
		romSizeCode: data[romSizeAddress],
		ramSizeCode: data[ramSizeAddress],
	}
	copy(cart.data, data)

	mbcType, hasBattery, err := decodeCartridgeType(cart.cartType)
	if err != nil {
		return nil, err
	}
	cart.mbcType = mbcType
	cart.hasBattery = hasBattery
	cart.ramBankCount = decodeRAMBanks(cart.ramSizeCode)

	return cart, nil
}

// headerChecksum computes the 8-bit checksum over 0x0134..0x014C the same
// way the boot ROM does.
func headerChecksum(data []byte) uint8 {
	var sum uint8
	for address := 0x0134; address <= 0x014C; address++ {
		sum = sum - data[address] - 1
	}
	return sum
}

// decodeCartridgeType maps the header's cartridge type byte to a mapper.
func decodeCartridgeType(code uint8) (MBCType, bool, error) {
	switch code {
	case 0x00, 0x08, 0x09:
		return NoMBCType, code == 0x09, nil
	case 0x01, 0x02:
		return MBC1Type, false, nil
	case 0x03:
		return MBC1Type, true, nil
	case 0x05:
		return MBC2Type, false, nil
	case 0x06:
		return MBC2Type, true, nil
	case 0x0F, 0x10, 0x13:
		return MBC3Type, true, nil
	case 0x11, 0x12:
		return MBC3Type, false, nil
	case 0x19, 0x1A, 0x1C, 0x1D:
		return MBC5Type, false, nil
	case 0x1B, 0x1E:
		return MBC5Type, true, nil
	default:
		return NoMBCType, false, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMBC, code)
	}
}

// decodeRAMBanks maps the header RAM size code to a count of 8 KiB banks.
func decodeRAMBanks(code uint8) uint8 {
	switch code {
	case 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}

// Title returns the cartridge title, cleaned for use in filenames.
func (c *Cartridge) Title() string {
	return c.title
}

// cleanTitle strips padding and non-printable bytes from the raw title.
func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}
	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
