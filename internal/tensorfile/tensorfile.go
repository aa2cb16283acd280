// Package tensorfile reads and writes the safetensors container format:
// an 8-byte little-endian header length, a JSON header describing each named
// tensor (dtype, shape, byte offsets into the payload), then the raw tensor
// payload. Only rank-2 float32 tensors are supported, which is all an
// exemplar index ever stores.
package tensorfile

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"sentinel/internal/embeddings"
)

const (
	dtypeF32    = "F32"
	metadataKey = "__metadata__"

	// maxHeaderLen bounds the declared header size so a corrupt length
	// prefix cannot trigger a huge allocation.
	maxHeaderLen = 16 << 20
)

type headerEntry struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

// Write serializes the named matrices to w.
func Write(w io.Writer, tensors map[string]*embeddings.Matrix) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]headerEntry, len(tensors))
	offset := 0
	for _, name := range names {
		m := tensors[name]
		size := m.Rows() * m.Dim() * 4
		header[name] = headerEntry{
			Dtype:       dtypeF32,
			Shape:       []int{m.Rows(), m.Dim()},
			DataOffsets: [2]int{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("tensorfile: encode header: %w", err)
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerJSON)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("tensorfile: write header length: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("tensorfile: write header: %w", err)
	}

	buf := make([]byte, 0, offset)
	for _, name := range names {
		for _, v := range tensors[name].Data() {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("tensorfile: write payload: %w", err)
	}
	return nil
}

// Read parses a container from r and returns its named matrices.
func Read(r io.Reader) (map[string]*embeddings.Matrix, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("tensorfile: read header length: %w", err)
	}
	headerLen := binary.LittleEndian.Uint64(lenBuf[:])
	if headerLen == 0 || headerLen > maxHeaderLen {
		return nil, fmt.Errorf("tensorfile: implausible header length %d", headerLen)
	}

	headerJSON := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("tensorfile: read header: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, fmt.Errorf("tensorfile: decode header: %w", err)
	}
	delete(raw, metadataKey)

	header := make(map[string]headerEntry, len(raw))
	for name, msg := range raw {
		var e headerEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, fmt.Errorf("tensorfile: decode entry %q: %w", name, err)
		}
		header[name] = e
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tensorfile: read payload: %w", err)
	}

	out := make(map[string]*embeddings.Matrix, len(header))
	for name, e := range header {
		m, err := decodeEntry(name, e, payload)
		if err != nil {
			return nil, err
		}
		out[name] = m
	}
	return out, nil
}

func decodeEntry(name string, e headerEntry, payload []byte) (*embeddings.Matrix, error) {
	if e.Dtype != dtypeF32 {
		return nil, fmt.Errorf("tensorfile: entry %q: unsupported dtype %q", name, e.Dtype)
	}
	if len(e.Shape) != 2 || e.Shape[0] < 0 || e.Shape[1] < 0 {
		return nil, fmt.Errorf("tensorfile: entry %q: unsupported shape %v", name, e.Shape)
	}
	begin, end := e.DataOffsets[0], e.DataOffsets[1]
	if begin < 0 || end < begin || end > len(payload) {
		return nil, fmt.Errorf("tensorfile: entry %q: offsets [%d, %d) outside payload of %d bytes", name, begin, end, len(payload))
	}
	rows, dim := e.Shape[0], e.Shape[1]
	if end-begin != rows*dim*4 {
		return nil, fmt.Errorf("tensorfile: entry %q: %d bytes for shape %dx%d", name, end-begin, rows, dim)
	}

	m := embeddings.NewMatrix(rows, dim)
	data := m.Data()
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[begin+i*4:]))
	}
	return m, nil
}
