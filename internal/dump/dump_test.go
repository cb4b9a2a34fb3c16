package dump

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawHeader(magic, arch uint32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, magic)
	binary.Write(&buf, binary.LittleEndian, arch)
	return buf.Bytes()
}

func rawBlockHeader(pc, size uint64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, pc)
	binary.Write(&buf, binary.LittleEndian, size)
	return buf.Bytes()
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Arch
		wantErr error
	}{
		{name: "aarch64", data: rawHeader(Magic, 1), want: ArchAArch64},
		{name: "x64", data: rawHeader(Magic, 2), want: ArchX64},
		{name: "empty", data: nil, wantErr: ErrInvalidHeader},
		{name: "short", data: rawHeader(Magic, 1)[:7], wantErr: ErrInvalidHeader},
		{name: "bad magic", data: rawHeader(0xdeadbeef, 1), wantErr: ErrInvalidMagic},
		{name: "arch zero", data: rawHeader(Magic, 0), wantErr: ErrUnsupportedArchitecture},
		{name: "arch three", data: rawHeader(Magic, 3), wantErr: ErrUnsupportedArchitecture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ReadHeader(bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Magic, h.Magic)
			assert.Equal(t, tt.want, h.Architecture())
		})
	}
}

func TestHeaderRejectedBeforeBlocks(t *testing.T) {
	data := append(rawHeader(Magic, 3), rawBlockHeader(0x1000, 1)...)
	data = append(data, 0xc3)

	r := bytes.NewReader(data)
	_, err := NewReader(r)
	assert.ErrorIs(t, err, ErrUnsupportedArchitecture)
	assert.Equal(t, 8, int(r.Size())-r.Len(), "only the header may be consumed")
}

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, ArchX64)
	require.NoError(t, err)
	require.NoError(t, w.WriteBlock(0x1000, []byte{0x55, 0x48, 0x89, 0xe5, 0xc3}))
	require.NoError(t, w.WriteBlock(0x2000, nil))
	require.NoError(t, w.WriteBlock(0xffff_0000_0000_0000, []byte{0x90}))

	assert.Equal(t, rawHeader(Magic, 2), buf.Bytes()[:8])

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, ArchX64, r.Header().Architecture())

	want := []Block{
		{PC: 0x1000, Code: []byte{0x55, 0x48, 0x89, 0xe5, 0xc3}},
		{PC: 0x2000, Code: []byte{}},
		{PC: 0xffff_0000_0000_0000, Code: []byte{0x90}},
	}
	for _, wb := range want {
		b, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, wb.PC, b.PC)
		assert.Equal(t, len(wb.Code), len(b.Code))
		if len(wb.Code) > 0 {
			assert.Equal(t, wb.Code, b.Code)
		}
	}

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderConsumesExactBlockSize(t *testing.T) {
	data := rawHeader(Magic, 1)
	data = append(data, rawBlockHeader(0x40, 4)...)
	data = append(data, 0xc0, 0x03, 0x5f, 0xd6)
	data = append(data, 0xaa) // start of the next block header

	src := bytes.NewReader(data)
	r, err := NewReader(src)
	require.NoError(t, err)

	b, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), b.Size())
	assert.Equal(t, 1, src.Len(), "block must consume 16 + size bytes")
}

func TestReaderPartialBlockHeaderIsEOF(t *testing.T) {
	for n := 1; n < blockHeaderSize; n++ {
		data := append(rawHeader(Magic, 2), rawBlockHeader(0x1000, 5)[:n]...)

		r, err := NewReader(bytes.NewReader(data))
		require.NoError(t, err)

		_, err = r.Next()
		assert.ErrorIs(t, err, io.EOF, "header bytes: %d", n)
	}
}

func TestReaderTruncatedBlock(t *testing.T) {
	data := rawHeader(Magic, 1)
	data = append(data, rawBlockHeader(0x2000, 100)...)
	data = append(data, make([]byte, 40)...)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedBlock)
	assert.Equal(t, "block 2000 is truncated", err.Error())

	var te *TruncatedBlockError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, uint64(0x2000), te.PC)
	assert.Equal(t, uint64(100), te.Size)
	assert.Equal(t, uint64(40), te.Available)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderHugeSizeIsTruncation(t *testing.T) {
	data := rawHeader(Magic, 1)
	data = append(data, rawBlockHeader(0x10, ^uint64(0))...)
	data = append(data, 1, 2, 3)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrTruncatedBlock)
}

func TestNewWriterRejectsArch(t *testing.T) {
	_, err := NewWriter(io.Discard, Arch(7))
	assert.ErrorIs(t, err, ErrUnsupportedArchitecture)
}

func TestArchString(t *testing.T) {
	assert.Equal(t, "aarch64", ArchAArch64.String())
	assert.Equal(t, "x64", ArchX64.String())
	assert.Equal(t, "arch(3)", Arch(3).String())
}
