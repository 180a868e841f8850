package render

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// meshMagic открывает каждый сериализованный меш
var meshMagic = [4]byte{'V', 'X', 'M', '1'}

// Ограничения декодера, чтобы повреждённый блоб не съел память
const (
	maxMeshVertices  = 1 << 22
	maxDecodedMemory = 256 << 20
)

// ErrBadMesh: блоб не является корректным сериализованным мешем
var ErrBadMesh = errors.New("некорректный блоб меша")

type meshHeader struct {
	Magic      [4]byte
	Vertices   uint32
	Indices    uint32
	IndexCount uint32
}

// MeshCodec сериализует меши для удалённых потребителей буферов:
// little-endian в раскладке вершинного буфера, поверх zstd.
// Кодек безопасен для одновременного использования.
type MeshCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewMeshCodec создаёт кодек с заданным уровнем сжатия
func NewMeshCodec(level zstd.EncoderLevel) (*MeshCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("создание zstd энкодера: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedMemory))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("создание zstd декодера: %w", err)
	}
	return &MeshCodec{encoder: enc, decoder: dec}, nil
}

// Encode сериализует и сжимает меш
func (c *MeshCodec) Encode(mesh *Mesh) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(16 + len(mesh.Vertices)*VertexSize + len(mesh.Indices)*4)

	header := meshHeader{
		Magic:      meshMagic,
		Vertices:   uint32(len(mesh.Vertices)),
		Indices:    uint32(len(mesh.Indices)),
		IndexCount: mesh.IndexCount,
	}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("запись заголовка меша: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, mesh.Vertices); err != nil {
		return nil, fmt.Errorf("запись вершин: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, mesh.Indices); err != nil {
		return nil, fmt.Errorf("запись индексов: %w", err)
	}

	return c.encoder.EncodeAll(buf.Bytes(), nil), nil
}

// Decode распаковывает и разбирает меш
func (c *MeshCodec) Decode(data []byte) (*Mesh, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: распаковка: %v", ErrBadMesh, err)
	}

	r := bytes.NewReader(raw)
	var header meshHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: заголовок: %v", ErrBadMesh, err)
	}
	if header.Magic != meshMagic {
		return nil, fmt.Errorf("%w: неверная сигнатура %q", ErrBadMesh, header.Magic[:])
	}
	if header.Vertices > maxMeshVertices || header.Indices > maxMeshVertices*2 {
		return nil, fmt.Errorf("%w: слишком большой меш (%d вершин, %d индексов)", ErrBadMesh, header.Vertices, header.Indices)
	}
	expected := int(header.Vertices)*VertexSize + int(header.Indices)*4
	if r.Len() != expected {
		return nil, fmt.Errorf("%w: ожидалось %d байт данных, получено %d", ErrBadMesh, expected, r.Len())
	}

	mesh := &Mesh{
		Vertices:   make([]Vertex, header.Vertices),
		Indices:    make([]uint32, header.Indices),
		IndexCount: header.IndexCount,
	}
	if err := binary.Read(r, binary.LittleEndian, mesh.Vertices); err != nil {
		return nil, fmt.Errorf("%w: вершины: %v", ErrBadMesh, err)
	}
	if err := binary.Read(r, binary.LittleEndian, mesh.Indices); err != nil {
		return nil, fmt.Errorf("%w: индексы: %v", ErrBadMesh, err)
	}
	if int(mesh.IndexCount) != len(mesh.Indices) {
		return nil, fmt.Errorf("%w: index_count %d не совпадает с числом индексов %d", ErrBadMesh, mesh.IndexCount, len(mesh.Indices))
	}
	for i, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Vertices) {
			return nil, fmt.Errorf("%w: индекс %d = %d вне %d вершин", ErrBadMesh, i, idx, len(mesh.Vertices))
		}
	}
	return mesh, nil
}

// Close освобождает ресурсы энкодера и декодера
func (c *MeshCodec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
