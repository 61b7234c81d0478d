package dotmatrix

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Save-file layout: the raw 64 KiB memory image, the 8 byte registers in
// the order A,B,C,D,E,F,H,L, then PC and SP as little-endian words.
const (
	memoryImageSize = 0x10000
	snapshotSize    = memoryImageSize + 8 + 4
)

// SaveFileName derives the quick-save filename from the cartridge title.
func (d *DMG) SaveFileName() string {
	return d.mmu.Cartridge().Title() + ".gbsave"
}

// Save writes a snapshot next to the process working directory.
func (d *DMG) Save() error {
	file, err := os.Create(d.SaveFileName())
	if err != nil {
		return fmt.Errorf("creating save file: %w", err)
	}
	defer file.Close()

	if err := d.SaveTo(file); err != nil {
		return fmt.Errorf("writing save file: %w", err)
	}
	return nil
}

// SaveTo streams the snapshot to w.
func (d *DMG) SaveTo(w io.Writer) error {
	if _, err := w.Write(d.mmu.DumpImage()); err != nil {
		return err
	}

	regs, pc, sp := d.cpu.Registers()
	if _, err := w.Write(regs[:]); err != nil {
		return err
	}

	var words [4]uint8
	binary.LittleEndian.PutUint16(words[0:2], pc)
	binary.LittleEndian.PutUint16(words[2:4], sp)
	_, err := w.Write(words[:])
	return err
}

// Load restores the snapshot written by Save.
func (d *DMG) Load() error {
	file, err := os.Open(d.SaveFileName())
	if err != nil {
		return fmt.Errorf("opening save file: %w", err)
	}
	defer file.Close()

	if err := d.LoadFrom(file); err != nil {
		return fmt.Errorf("reading save file: %w", err)
	}
	return nil
}

// LoadFrom restores a snapshot from r. The whole snapshot is read into a
// shadow buffer first so that a truncated or unreadable stream leaves the
// live state untouched.
func (d *DMG) LoadFrom(r io.Reader) error {
	shadow := make([]uint8, snapshotSize)
	if _, err := io.ReadFull(r, shadow); err != nil {
		return fmt.Errorf("snapshot must be %d bytes: %w", snapshotSize, err)
	}

	if err := d.mmu.LoadImage(shadow[:memoryImageSize]); err != nil {
		return err
	}

	var regs [8]uint8
	copy(regs[:], shadow[memoryImageSize:memoryImageSize+8])
	pc := binary.LittleEndian.Uint16(shadow[memoryImageSize+8 : memoryImageSize+10])
	sp := binary.LittleEndian.Uint16(shadow[memoryImageSize+10 : memoryImageSize+12])
	d.cpu.SetRegisters(regs, pc, sp)

	d.ppu.SyncAfterLoad()
	return nil
}
