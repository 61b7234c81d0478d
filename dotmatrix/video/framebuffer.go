package video

// Screen dimensions of the DMG LCD.
const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// FrameBuffer holds one frame of 2-bit shades (0 = lightest, 3 = darkest)
// after palette mapping. The host decides how shades become colors and
// applies scaling.
type FrameBuffer struct {
	buffer [FramebufferWidth * FramebufferHeight]uint8
}

// NewFrameBuffer creates an all-white frame.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// GetPixel returns the shade at (x, y).
func (fb *FrameBuffer) GetPixel(x, y int) uint8 {
	return fb.buffer[y*FramebufferWidth+x]
}

// SetPixel stores the shade at (x, y).
func (fb *FrameBuffer) SetPixel(x, y int, shade uint8) {
	fb.buffer[y*FramebufferWidth+x] = shade
}

// ToSlice exposes the backing pixel slice, row-major.
func (fb *FrameBuffer) ToSlice() []uint8 {
	return fb.buffer[:]
}

// Clear resets every pixel to shade 0.
func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = 0
	}
}
