package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marzari/dotmatrix/dotmatrix/addr"
	"github.com/marzari/dotmatrix/dotmatrix/memory"
)

func newTestPPU() (*PPU, *memory.MMU) {
	mmu := memory.New()
	ppu := New(mmu)
	// the documented post-boot LCDC value, normally written by the CPU
	mmu.Write(addr.LCDC, 0x91)
	return ppu, mmu
}

func TestPPU_modeProgression(t *testing.T) {
	ppu, mmu := newTestPPU()

	assert.Equal(t, ModeOAMSearch, ppu.Mode())

	ppu.Step(80)
	assert.Equal(t, ModePixelTransfer, ppu.Mode())

	ppu.Step(172)
	assert.Equal(t, ModeHBlank, ppu.Mode())

	ppu.Step(204)
	assert.Equal(t, ModeOAMSearch, ppu.Mode())
	assert.Equal(t, uint8(1), mmu.Read(addr.LY))
}

func TestPPU_fullScanlineInOneStep(t *testing.T) {
	ppu, mmu := newTestPPU()

	ppu.Step(456)

	assert.Equal(t, ModeOAMSearch, ppu.Mode())
	assert.Equal(t, uint8(1), mmu.Read(addr.LY))
}

func TestPPU_statMirrorsMode(t *testing.T) {
	ppu, mmu := newTestPPU()

	assert.Equal(t, uint8(ModeOAMSearch), mmu.Read(addr.STAT)&0x03)

	ppu.Step(80)
	assert.Equal(t, uint8(ModePixelTransfer), mmu.Read(addr.STAT)&0x03)

	ppu.Step(172)
	assert.Equal(t, uint8(ModeHBlank), mmu.Read(addr.STAT)&0x03)
}

func TestPPU_vblankEntry(t *testing.T) {
	ppu, mmu := newTestPPU()

	ppu.Step(456 * 144)

	assert.Equal(t, ModeVBlank, ppu.Mode())
	assert.Equal(t, uint8(144), mmu.Read(addr.LY))
	assert.True(t, ppu.FrameReady())
	// VBlank interrupt raised
	assert.Equal(t, uint8(0x01), mmu.Read(addr.IF)&0x01)
}

func TestPPU_lyWrapsAfterVBlank(t *testing.T) {
	ppu, mmu := newTestPPU()

	ppu.Step(456 * 153)
	assert.Equal(t, uint8(153), mmu.Read(addr.LY))

	ppu.Step(456)
	assert.Equal(t, uint8(0), mmu.Read(addr.LY))
	assert.Equal(t, ModeOAMSearch, ppu.Mode())
}

func TestPPU_statInterruptSources(t *testing.T) {
	testCases := []struct {
		desc     string
		statBits uint8
		cycles   int
		want     bool
	}{
		{desc: "hblank source enabled", statBits: 1 << 3, cycles: 252, want: true},
		{desc: "hblank source disabled", statBits: 0, cycles: 252, want: false},
		{desc: "oam source enabled", statBits: 1 << 5, cycles: 456, want: true},
		{desc: "vblank source enabled", statBits: 1 << 4, cycles: 456 * 144, want: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			ppu, mmu := newTestPPU()
			mmu.Write(addr.STAT, tC.statBits)

			ppu.Step(tC.cycles)

			fired := mmu.Read(addr.IF)&0x02 != 0
			assert.Equal(t, tC.want, fired)
		})
	}
}

func TestPPU_lycCoincidence(t *testing.T) {
	ppu, mmu := newTestPPU()
	mmu.Write(addr.LYC, 2)
	mmu.Write(addr.STAT, 1<<6)

	ppu.Step(456)
	assert.Zero(t, mmu.Read(addr.STAT)&0x04)
	assert.Zero(t, mmu.Read(addr.IF)&0x02)

	ppu.Step(456)
	assert.NotZero(t, mmu.Read(addr.STAT)&0x04)
	assert.NotZero(t, mmu.Read(addr.IF)&0x02)
}

func TestPPU_lyWriteResetsLine(t *testing.T) {
	ppu, mmu := newTestPPU()

	ppu.Step(456 * 10)
	assert.Equal(t, uint8(10), ppu.Line())

	mmu.Write(addr.LY, 0x42)

	assert.Equal(t, uint8(0), ppu.Line())
	assert.Equal(t, uint8(0), mmu.Read(addr.LY))
}

// writeTile stores one 8x8 tile whose every row has the given two
// bitplane bytes.
func writeTile(mmu *memory.MMU, base uint16, low, high uint8) {
	for row := uint16(0); row < 8; row++ {
		mmu.Write(base+row*2, low)
		mmu.Write(base+row*2+1, high)
	}
}

func TestPPU_backgroundScanline(t *testing.T) {
	ppu, mmu := newTestPPU()
	mmu.Write(addr.BGP, 0xE4)

	// tile map at 0x9800 is all zeroes, tile 0 rows are 0xFF/0x00:
	// every background pixel has colour index 1
	writeTile(mmu, 0x8000, 0xFF, 0x00)

	ppu.Step(252) // render line 0

	for x := 0; x < FramebufferWidth; x++ {
		assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(x, 0))
	}
}

func TestPPU_backgroundPaletteMapping(t *testing.T) {
	ppu, mmu := newTestPPU()

	// index 1 maps to shade 3 under this palette
	mmu.Write(addr.BGP, 0b00001100)
	writeTile(mmu, 0x8000, 0xFF, 0x00)

	ppu.Step(252)

	assert.Equal(t, uint8(3), ppu.Framebuffer().GetPixel(0, 0))
}

func TestPPU_backgroundSignedTileAddressing(t *testing.T) {
	ppu, mmu := newTestPPU()

	// LCDC bit 4 clear: tile ids are signed around 0x9000
	mmu.Write(addr.LCDC, 0x81)
	mmu.Write(addr.BGP, 0xE4)

	// fill the map with tile id 0x80 (-128), which lives at 0x8800
	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(0x9800+i, 0x80)
	}
	writeTile(mmu, 0x8800, 0x00, 0xFF) // colour index 2

	ppu.Step(252)

	assert.Equal(t, uint8(2), ppu.Framebuffer().GetPixel(0, 0))
}

func TestPPU_backgroundScrollX(t *testing.T) {
	ppu, mmu := newTestPPU()
	mmu.Write(addr.BGP, 0xE4)

	// tile 1 in the second map column only
	mmu.Write(0x9801, 0x01)
	writeTile(mmu, 0x8010, 0xFF, 0x00)

	mmu.Write(addr.SCX, 8)

	ppu.Step(252)

	// with SCX=8, screen column 0 shows map column 1
	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(0, 0))
	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(8, 0))
}

func TestPPU_windowOverlay(t *testing.T) {
	ppu, mmu := newTestPPU()

	// background from map 0 (zero tiles), window enabled on map 1
	mmu.Write(addr.LCDC, 0x91|1<<5|1<<6)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.WY, 0)
	mmu.Write(addr.WX, 7+80) // window starts at screen x=80

	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(0x9C00+i, 0x01)
	}
	writeTile(mmu, 0x8010, 0xFF, 0x00)

	ppu.Step(252)

	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(79, 0))
	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(80, 0))
}

func TestPPU_windowBelowWY(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x91|1<<5|1<<6)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.WY, 100)
	mmu.Write(addr.WX, 7)

	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(0x9C00+i, 0x01)
	}
	writeTile(mmu, 0x8010, 0xFF, 0x00)

	ppu.Step(252) // line 0 is above WY

	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(0, 0))
}

// writeSprite stores one OAM entry.
func writeSprite(mmu *memory.MMU, index int, y, x, tile, attributes uint8) {
	base := addr.OAMStart + uint16(index)*4
	mmu.Write(base, y)
	mmu.Write(base+1, x)
	mmu.Write(base+2, tile)
	mmu.Write(base+3, attributes)
}

func TestPPU_spriteRendering(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93) // bg + sprites enabled
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)

	writeTile(mmu, 0x8010, 0xFF, 0x00) // tile 1, colour index 1
	writeSprite(mmu, 0, 16, 8, 0x01, 0x00)

	ppu.Step(252)

	for x := 0; x < 8; x++ {
		assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(x, 0))
	}
	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(8, 0))
}

func TestPPU_spriteUsesOBP1(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93)
	mmu.Write(addr.OBP0, 0xE4)
	mmu.Write(addr.OBP1, 0b00001100) // index 1 -> shade 3

	writeTile(mmu, 0x8010, 0xFF, 0x00)
	writeSprite(mmu, 0, 16, 8, 0x01, 1<<4)

	ppu.Step(252)

	assert.Equal(t, uint8(3), ppu.Framebuffer().GetPixel(0, 0))
}

func TestPPU_spriteTransparency(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93)
	mmu.Write(addr.BGP, 0b00001101) // bg index 0 -> shade 1
	mmu.Write(addr.OBP0, 0xE4)

	// tile 1 is all colour 0: fully transparent
	writeTile(mmu, 0x8010, 0x00, 0x00)
	writeSprite(mmu, 0, 16, 8, 0x01, 0x00)

	ppu.Step(252)

	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(0, 0))
}

func TestPPU_spritePriorityLowerIndexWins(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93)
	mmu.Write(addr.OBP0, 0xE4)

	writeTile(mmu, 0x8010, 0xFF, 0x00) // index 1 -> shade 1
	writeTile(mmu, 0x8020, 0x00, 0xFF) // index 2 -> shade 2

	// both sprites cover the same pixels; entry 0 must win
	writeSprite(mmu, 0, 16, 8, 0x01, 0x00)
	writeSprite(mmu, 1, 16, 8, 0x02, 0x00)

	ppu.Step(252)

	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(0, 0))
}

func TestPPU_spriteBehindBackground(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)

	writeTile(mmu, 0x8000, 0xFF, 0x00) // background colour index 1
	writeTile(mmu, 0x8020, 0x00, 0xFF) // sprite colour index 2
	writeSprite(mmu, 0, 16, 8, 0x02, 1<<7)

	ppu.Step(252)

	// the background is opaque here, so the sprite stays behind it
	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(0, 0))
}

func TestPPU_spriteXFlip(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93)
	mmu.Write(addr.OBP0, 0xE4)

	// tile 1: only the leftmost pixel of each row is colour 1
	writeTile(mmu, 0x8010, 0x80, 0x00)
	writeSprite(mmu, 0, 16, 8, 0x01, 1<<5)

	ppu.Step(252)

	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(0, 0))
	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(7, 0))
}

func TestPPU_spriteYFlip(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93)
	mmu.Write(addr.OBP0, 0xE4)

	// tile 1: only row 0 is colour 1; y-flip moves it to row 7
	mmu.Write(0x8010, 0xFF)
	mmu.Write(0x8011, 0x00)
	writeSprite(mmu, 0, 16, 8, 0x01, 1<<6)

	ppu.Step(252)
	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(0, 0))

	// render lines 1 through 7
	ppu.Step(456 * 7)
	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(0, 7))
}

func TestPPU_tallSprites(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x93|1<<2) // 8x16 sprites
	mmu.Write(addr.OBP0, 0xE4)

	// rows 8-15 come from tile 3; bit 0 of the tile id is ignored
	writeTile(mmu, 0x8030, 0xFF, 0x00)
	writeSprite(mmu, 0, 16, 8, 0x02, 0x00)

	// line 8 falls into the lower tile
	for line := 0; line <= 8; line++ {
		ppu.Step(456)
	}

	assert.Equal(t, uint8(1), ppu.Framebuffer().GetPixel(0, 8))
}

func TestPPU_lcdDisabledRendersNothing(t *testing.T) {
	ppu, mmu := newTestPPU()

	mmu.Write(addr.LCDC, 0x00)
	writeTile(mmu, 0x8000, 0xFF, 0x00)
	mmu.Write(addr.BGP, 0xE4)

	ppu.Step(252)

	assert.Equal(t, uint8(0), ppu.Framebuffer().GetPixel(0, 0))
}
