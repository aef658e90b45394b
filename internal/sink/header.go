package sink

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"

	"elnino/internal/types"
)

// HeaderSink prints definitions as C declarations. Definitions arrive in
// dependency order for by-value members; pointer targets may be defined
// later or never, so Close prepends forward declarations for every struct
// and union the header mentions.
type HeaderSink struct {
	w      io.Writer
	closer io.Closer
	title  string
	defs   []Definition
	tags   map[string]types.Class
	closed bool
}

// NewHeaderSink writes to w. When w is also an io.Closer it is closed by
// Close.
func NewHeaderSink(w io.Writer, title string) *HeaderSink {
	h := &HeaderSink{w: w, title: title, tags: make(map[string]types.Class)}
	if c, ok := w.(io.Closer); ok {
		h.closer = c
	}
	return h
}

// NewHeaderFile buffers the header and replaces path atomically on Close.
func NewHeaderFile(path, title string) *HeaderSink {
	return NewHeaderSink(&atomicFile{path: path}, title)
}

// atomicFile collects writes and publishes them with writeAtomic on Close.
type atomicFile struct {
	path string
	buf  bytes.Buffer
}

func (f *atomicFile) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *atomicFile) Close() error { return writeAtomic(f.path, f.buf.Bytes()) }

func (h *HeaderSink) DefineType(name string, kind types.Kind, t *types.Type) error {
	h.defs = append(h.defs, Definition{Name: name, Kind: kind, Type: t})
	if class := types.ClassOf(kind); class == types.ClassStruct || class == types.ClassUnion {
		h.tags[name] = class
	}
	h.collect(t)
	return nil
}

func (h *HeaderSink) collect(t *types.Type) {
	if t == nil {
		return
	}
	if t.Kind == types.KindNamed && (t.Ref.Class == types.ClassStruct || t.Ref.Class == types.ClassUnion) {
		if _, ok := h.tags[t.Ref.Name]; !ok {
			h.tags[t.Ref.Name] = t.Ref.Class
		}
	}
	h.collect(t.Elem)
	for _, m := range t.Members {
		h.collect(m.Type)
	}
}

// Close writes the header.
func (h *HeaderSink) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	bw := bufio.NewWriter(h.w)
	if h.title != "" {
		fmt.Fprintf(bw, "/* %s */\n", h.title)
	}
	bw.WriteString("#pragma once\n#include <stdint.h>\n\n")

	names := make([]string, 0, len(h.tags))
	for name := range h.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(bw, "%s %s;\n", h.tags[name], name)
	}
	if len(names) > 0 {
		bw.WriteByte('\n')
	}
	for _, d := range h.defs {
		bw.WriteString(types.Declaration(d.Name, d.Type))
		bw.WriteByte('\n')
	}
	err := bw.Flush()
	if h.closer != nil {
		if cerr := h.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
