package video

import (
	"github.com/marzari/dotmatrix/dotmatrix/addr"
	"github.com/marzari/dotmatrix/dotmatrix/bit"
	"github.com/marzari/dotmatrix/dotmatrix/memory"
)

// Mode is the PPU phase, numbered as exposed in STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank        Mode = 0
	ModeVBlank        Mode = 1
	ModeOAMSearch     Mode = 2
	ModePixelTransfer Mode = 3
)

// Phase durations in T-cycles. A visible scanline visits OAM search,
// pixel transfer and HBlank for 456 cycles total; VBlank spans ten more
// scanline periods.
const (
	oamSearchCycles     = 80
	pixelTransferCycles = 172
	hblankCycles        = 204
	scanlineCycles      = oamSearchCycles + pixelTransferCycles + hblankCycles

	lastVBlankLine = 153
)

// LCDC bit positions.
const (
	lcdcBGEnable      = 0
	lcdcSpriteEnable  = 1
	lcdcSpriteSize    = 2
	lcdcBGTileMap     = 3
	lcdcTileData      = 4
	lcdcWindowEnable  = 5
	lcdcWindowTileMap = 6
)

// STAT bit positions.
const (
	statLYCFlag      = 2
	statHBlankIRQ    = 3
	statVBlankIRQ    = 4
	statOAMIRQ       = 5
	statLYCInterrupt = 6
)

// PPU is the scanline state machine. It is driven by the T-cycle deltas
// the CPU produces and renders one line at a time into the framebuffer,
// mirroring its mode and line into STAT and LY.
type PPU struct {
	mmu         *memory.MMU
	framebuffer *FrameBuffer

	mode       Mode
	line       uint8
	clock      int
	frameReady bool

	// raw background colour indices of the current line, used for the
	// sprite background-priority attribute
	bgRow [FramebufferWidth]uint8
}

// New creates a PPU starting at line 0 in OAM search.
func New(mmu *memory.MMU) *PPU {
	p := &PPU{
		mmu:         mmu,
		framebuffer: NewFrameBuffer(),
		mode:        ModeOAMSearch,
	}
	mmu.OnLYWrite = p.ResetLine
	p.writeSTATMode()
	return p
}

// Framebuffer returns the frame being rendered into.
func (p *PPU) Framebuffer() *FrameBuffer {
	return p.framebuffer
}

// Mode returns the current phase.
func (p *PPU) Mode() Mode {
	return p.mode
}

// Line returns the current scanline.
func (p *PPU) Line() uint8 {
	return p.line
}

// FrameReady reports whether a full frame has been latched since the
// last ConsumeFrame.
func (p *PPU) FrameReady() bool {
	return p.frameReady
}

// ConsumeFrame clears the frame-ready latch after presentation.
func (p *PPU) ConsumeFrame() {
	p.frameReady = false
}

// ResetLine handles a bus write to LY, which resets the scanline counter.
func (p *PPU) ResetLine() {
	p.line = 0
	p.mmu.WriteDirect(addr.LY, 0)
	p.compareLYC()
}

// Step advances the PPU by the given number of T-cycles, crossing as many
// phase boundaries as the delta covers.
func (p *PPU) Step(cycles int) {
	p.clock += cycles

	for {
		switch p.mode {
		case ModeOAMSearch:
			if p.clock < oamSearchCycles {
				return
			}
			p.clock -= oamSearchCycles
			p.setMode(ModePixelTransfer)

		case ModePixelTransfer:
			if p.clock < pixelTransferCycles {
				return
			}
			p.clock -= pixelTransferCycles
			p.renderScanline()
			p.setMode(ModeHBlank)

		case ModeHBlank:
			if p.clock < hblankCycles {
				return
			}
			p.clock -= hblankCycles
			p.setLine(p.line + 1)
			if p.line >= FramebufferHeight {
				p.frameReady = true
				p.setMode(ModeVBlank)
			} else {
				p.setMode(ModeOAMSearch)
			}

		case ModeVBlank:
			if p.clock < scanlineCycles {
				return
			}
			p.clock -= scanlineCycles
			if p.line >= lastVBlankLine {
				p.setLine(0)
				p.setMode(ModeOAMSearch)
			} else {
				p.setLine(p.line + 1)
			}
		}
	}
}

// setMode transitions the phase, mirrors it into STAT and raises the
// interrupts tied to the phase being entered. Each STAT source is gated
// by its own enable bit: 3 for HBlank, 4 for VBlank, 5 for OAM search.
func (p *PPU) setMode(mode Mode) {
	if p.mode == mode {
		return
	}
	p.mode = mode
	p.writeSTATMode()

	stat := p.mmu.Read(addr.STAT)
	switch mode {
	case ModeVBlank:
		p.mmu.RequestInterrupt(addr.VBlankInterrupt)
		if bit.IsSet(statVBlankIRQ, stat) {
			p.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	case ModeHBlank:
		if bit.IsSet(statHBlankIRQ, stat) {
			p.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	case ModeOAMSearch:
		if bit.IsSet(statOAMIRQ, stat) {
			p.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	}
}

// writeSTATMode mirrors the phase into STAT bits 0-1.
func (p *PPU) writeSTATMode() {
	stat := p.mmu.Read(addr.STAT)
	p.mmu.WriteDirect(addr.STAT, stat&0xFC|uint8(p.mode))
}

// setLine advances LY and re-evaluates the LY==LYC coincidence.
func (p *PPU) setLine(line uint8) {
	p.line = line
	p.mmu.WriteDirect(addr.LY, line)
	p.compareLYC()
}

// compareLYC maintains STAT bit 2 and raises the STAT interrupt when
// enabled by bit 6.
func (p *PPU) compareLYC() {
	stat := p.mmu.Read(addr.STAT)
	if p.line == p.mmu.Read(addr.LYC) {
		stat = bit.Set(statLYCFlag, stat)
		if bit.IsSet(statLYCInterrupt, stat) {
			p.mmu.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat = bit.Reset(statLYCFlag, stat)
	}
	p.mmu.WriteDirect(addr.STAT, stat)
}

// SyncAfterLoad adopts the LY and STAT values restored by a snapshot.
func (p *PPU) SyncAfterLoad() {
	p.line = p.mmu.Read(addr.LY)
	p.mode = Mode(p.mmu.Read(addr.STAT) & 0x03)
	p.clock = 0
	p.frameReady = false
}

// renderScanline draws the current line in three passes: background,
// window, sprites. Nothing is drawn while LCDC bit 0 is clear.
func (p *PPU) renderScanline() {
	if p.line >= FramebufferHeight {
		return
	}

	lcdc := p.mmu.Read(addr.LCDC)
	if !bit.IsSet(lcdcBGEnable, lcdc) {
		return
	}

	p.renderBackground(lcdc)
	p.renderWindow(lcdc)
	p.renderSprites(lcdc)
}

// tileRowAddress resolves the VRAM address of a tile row, honoring the
// signed addressing mode when LCDC bit 4 is clear.
func tileRowAddress(lcdc, tileID uint8, rowInTile uint16) uint16 {
	if bit.IsSet(lcdcTileData, lcdc) {
		return addr.TileDataUnsigned + uint16(tileID)*16 + rowInTile*2
	}
	return uint16(int(addr.TileDataSigned) + int(int8(tileID))*16 + int(rowInTile)*2)
}

// mixTileRow extracts the 2-bit colour index of one pixel from a tile
// row: the low bit comes from the first byte, the high bit from the
// second.
func mixTileRow(low, high uint8, pixelBit uint8) uint8 {
	return bit.Value(pixelBit, high)<<1 | bit.Value(pixelBit, low)
}

// paletteShade maps a colour index through BGP/OBP0/OBP1.
func paletteShade(palette, index uint8) uint8 {
	return palette >> (index * 2) & 0x03
}

func (p *PPU) renderBackground(lcdc uint8) {
	mapBase := addr.TileMap0
	if bit.IsSet(lcdcBGTileMap, lcdc) {
		mapBase = addr.TileMap1
	}

	scy := p.mmu.Read(addr.SCY)
	scx := p.mmu.Read(addr.SCX)
	palette := p.mmu.Read(addr.BGP)

	bgY := uint16(p.line+scy) & 0xFF
	rowInTile := bgY % 8

	for x := 0; x < FramebufferWidth; x++ {
		bgX := uint16(uint8(x)+scx) & 0xFF

		tileID := p.mmu.Read(mapBase + bgY/8*32 + bgX/8)
		rowAddr := tileRowAddress(lcdc, tileID, rowInTile)
		low := p.mmu.Read(rowAddr)
		high := p.mmu.Read(rowAddr + 1)

		index := mixTileRow(low, high, uint8(7-bgX%8))
		p.bgRow[x] = index
		p.framebuffer.SetPixel(x, int(p.line), paletteShade(palette, index))
	}
}

func (p *PPU) renderWindow(lcdc uint8) {
	if !bit.IsSet(lcdcWindowEnable, lcdc) {
		return
	}

	wy := p.mmu.Read(addr.WY)
	if p.line < wy {
		return
	}

	mapBase := addr.TileMap0
	if bit.IsSet(lcdcWindowTileMap, lcdc) {
		mapBase = addr.TileMap1
	}

	startX := int(p.mmu.Read(addr.WX)) - 7
	if startX < 0 {
		startX = 0
	}

	palette := p.mmu.Read(addr.BGP)
	winY := uint16(p.line - wy)
	rowInTile := winY % 8

	for x := startX; x < FramebufferWidth; x++ {
		winX := uint16(x - startX)

		tileID := p.mmu.Read(mapBase + winY/8*32 + winX/8)
		rowAddr := tileRowAddress(lcdc, tileID, rowInTile)
		low := p.mmu.Read(rowAddr)
		high := p.mmu.Read(rowAddr + 1)

		index := mixTileRow(low, high, uint8(7-winX%8))
		p.bgRow[x] = index
		p.framebuffer.SetPixel(x, int(p.line), paletteShade(palette, index))
	}
}

// renderSprites walks OAM from the last entry to the first so that lower
// indices overwrite higher ones. The hardware's 10-per-line limit is not
// modelled.
func (p *PPU) renderSprites(lcdc uint8) {
	if !bit.IsSet(lcdcSpriteEnable, lcdc) {
		return
	}

	height := 8
	if bit.IsSet(lcdcSpriteSize, lcdc) {
		height = 16
	}

	for id := 39; id >= 0; id-- {
		entry := addr.OAMStart + uint16(id)*4
		spriteY := int(p.mmu.Read(entry)) - 16
		spriteX := int(p.mmu.Read(entry+1)) - 8
		tileID := p.mmu.Read(entry + 2)
		attributes := p.mmu.Read(entry + 3)

		row := int(p.line) - spriteY
		if row < 0 || row >= height {
			continue
		}
		if spriteX <= -8 || spriteX >= FramebufferWidth {
			continue
		}

		if bit.IsSet(6, attributes) { // y-flip
			row = height - 1 - row
		}
		if height == 16 {
			// the hardware ignores bit 0 of the tile id for tall sprites
			tileID &= 0xFE
		}

		palette := p.mmu.Read(addr.OBP0)
		if bit.IsSet(4, attributes) {
			palette = p.mmu.Read(addr.OBP1)
		}
		behindBG := bit.IsSet(7, attributes)

		rowAddr := addr.TileDataUnsigned + uint16(tileID)*16 + uint16(row)*2
		low := p.mmu.Read(rowAddr)
		high := p.mmu.Read(rowAddr + 1)

		for px := 0; px < 8; px++ {
			x := spriteX + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}

			pixelBit := uint8(7 - px)
			if bit.IsSet(5, attributes) { // x-flip
				pixelBit = uint8(px)
			}

			index := mixTileRow(low, high, pixelBit)
			if index == 0 {
				// colour 0 is transparent for sprites
				continue
			}
			if behindBG && p.bgRow[x] != 0 {
				continue
			}

			p.framebuffer.SetPixel(x, int(p.line), paletteShade(palette, index))
		}
	}
}
