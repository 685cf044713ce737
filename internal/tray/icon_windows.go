//go:build windows

package tray

import (
	"bytes"
	"encoding/binary"
)

// generateIcon draws a 16x16 green leaf-ish disc as an .ico.
func generateIcon() []byte {
	const size = 16

	// BGRA rows, bottom-up as BMP expects
	pixels := make([]byte, 0, size*size*4)
	for y := size - 1; y >= 0; y-- {
		for x := 0; x < size; x++ {
			dx, dy := x-7, y-7
			if dx*dx+dy*dy <= 49 {
				pixels = append(pixels, 0x2e, 0x9d, 0x3a, 0xff)
			} else {
				pixels = append(pixels, 0, 0, 0, 0)
			}
		}
	}
	mask := make([]byte, size*4) // 1bpp AND mask, rows padded to 32 bits

	var bmp bytes.Buffer
	header := struct {
		Size          uint32
		Width, Height int32
		Planes        uint16
		BitCount      uint16
		Compression   uint32
		SizeImage     uint32
		XPels, YPels  int32
		ClrUsed       uint32
		ClrImportant  uint32
	}{Size: 40, Width: size, Height: size * 2, Planes: 1, BitCount: 32}
	_ = binary.Write(&bmp, binary.LittleEndian, header)
	bmp.Write(pixels)
	bmp.Write(mask)

	var ico bytes.Buffer
	_ = binary.Write(&ico, binary.LittleEndian, [3]uint16{0, 1, 1})
	ico.Write([]byte{size, size, 0, 0})
	_ = binary.Write(&ico, binary.LittleEndian, uint16(1))
	_ = binary.Write(&ico, binary.LittleEndian, uint16(32))
	_ = binary.Write(&ico, binary.LittleEndian, uint32(bmp.Len()))
	_ = binary.Write(&ico, binary.LittleEndian, uint32(6+16))
	ico.Write(bmp.Bytes())
	return ico.Bytes()
}
