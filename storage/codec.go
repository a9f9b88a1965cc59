package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// serializer is the subset of a mus-go serializer the record codecs rely on.
type serializer[T any] interface {
	Marshal(v T, bs []byte) int
	Unmarshal(bs []byte) (T, int, error)
	Size(v T) int
}

// encoder appends mus encoded values to a growing buffer.
type encoder struct {
	buf []byte
}

func put[T any](e *encoder, s serializer[T], v T) {
	n := s.Size(v)
	off := len(e.buf)
	e.buf = slices.Grow(e.buf, n)[:off+n]
	s.Marshal(v, e.buf[off:])
}

func (e *encoder) int(v int)       { put(e, varint.Int64, int64(v)) }
func (e *encoder) uint64(v uint64) { put(e, varint.Uint64, v) }
func (e *encoder) string(v string) { put(e, ord.String, v) }
func (e *encoder) bool(v bool)     { put(e, ord.Bool, v) }

// time stores a presence flag followed by Unix microseconds, so the zero
// time survives a round trip.
func (e *encoder) time(t time.Time) {
	e.bool(!t.IsZero())
	if !t.IsZero() {
		put(e, varint.Int64, t.UnixMicro())
	}
}

func (e *encoder) strings(v []string) {
	e.int(len(v))
	for _, s := range v {
		e.string(s)
	}
}

func (e *encoder) ints(v []int) {
	e.int(len(v))
	for _, i := range v {
		e.int(i)
	}
}

func (e *encoder) vector(v []float32) {
	e.int(len(v))
	for _, f := range v {
		put(e, raw.Float32, f)
	}
}

// stringMap writes entries in key order so equal maps encode identically.
func (e *encoder) stringMap(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	e.int(len(keys))
	for _, k := range keys {
		e.string(k)
		e.string(m[k])
	}
}

// decoder reads mus encoded values. The first failure sticks and every
// later read returns the zero value.
type decoder struct {
	bs  []byte
	err error
}

func get[T any](d *decoder, s serializer[T]) T {
	var zero T
	if d.err != nil {
		return zero
	}
	v, n, err := s.Unmarshal(d.bs)
	if err != nil {
		d.err = err
		return zero
	}
	d.bs = d.bs[n:]
	return v
}

func (d *decoder) int() int       { return int(get[int64](d, varint.Int64)) }
func (d *decoder) uint64() uint64 { return get[uint64](d, varint.Uint64) }
func (d *decoder) string() string { return get[string](d, ord.String) }
func (d *decoder) bool() bool     { return get[bool](d, ord.Bool) }

func (d *decoder) time() time.Time {
	if !d.bool() {
		return time.Time{}
	}
	micros := get[int64](d, varint.Int64)
	if d.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}

// length reads a collection length and checks it against the remaining
// input, where every element needs at least minElem bytes.
func (d *decoder) length(minElem int) int {
	n := d.int()
	if d.err != nil {
		return 0
	}
	if n < 0 || n*minElem > len(d.bs) {
		d.err = ErrTruncatedData
		return 0
	}
	return n
}

func (d *decoder) strings() []string {
	n := d.length(1)
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = d.string()
	}
	return out
}

func (d *decoder) ints() []int {
	n := d.length(1)
	if n == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = d.int()
	}
	return out
}

func (d *decoder) vector() []float32 {
	n := d.length(4)
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = get[float32](d, raw.Float32)
	}
	return out
}

func (d *decoder) stringMap() map[string]string {
	n := d.length(2)
	if n == 0 {
		return nil
	}
	out := make(map[string]string, n)
	for range n {
		k := d.string()
		out[k] = d.string()
	}
	return out
}

// finish reports the sticky error, wrapped as a serialization failure.
func (d *decoder) finish(what string) error {
	if d.err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSerializationFailed, what, d.err)
	}
	return nil
}
