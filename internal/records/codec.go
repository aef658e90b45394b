package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// Format selects the stream encoding.
type Format uint8

const (
	FormatJSON Format = iota + 1
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// FormatForPath picks the encoding from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".mp", ".msgpack":
		return FormatMsgpack, nil
	default:
		return 0, fmt.Errorf("%s: unsupported record stream extension (expected .json, .mp or .msgpack)", path)
	}
}

// DecodeFile reads a File in the given format.
func DecodeFile(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
	return &f, nil
}

// EncodeFile writes f in the given format.
func EncodeFile(w io.Writer, f *File, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(f)
	default:
		return fmt.Errorf("unsupported format %v", format)
	}
}

// Load decodes and links the record stream stored at path.
func Load(path string) (*Stream, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = fh.Close()
	}()
	f, err := DecodeFile(fh, format)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode %s stream: %w", path, format, err)
	}
	s, err := Link(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadAll decodes several streams concurrently and concatenates them in
// argument order. Each file has its own type index space. All files must
// agree on the architecture when they name one.
func LoadAll(ctx context.Context, paths []string, jobs int) (*Stream, error) {
	streams := make([]*Stream, len(paths))
	g, _ := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			s, err := Load(path)
			if err != nil {
				return err
			}
			streams[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(paths, streams)
}

// Merge concatenates linked streams. names labels each stream in errors.
func Merge(names []string, streams []*Stream) (*Stream, error) {
	out := &Stream{}
	archFrom := ""
	for i, s := range streams {
		if s == nil {
			continue
		}
		if s.Arch != "" {
			if out.Arch != "" && !strings.EqualFold(out.Arch, s.Arch) {
				return nil, fmt.Errorf("architecture mismatch: %s declares %q, %s declares %q", archFrom, out.Arch, label(names, i), s.Arch)
			}
			if out.Arch == "" {
				out.Arch = s.Arch
				archFrom = label(names, i)
			}
		}
		out.Records = append(out.Records, s.Records...)
	}
	return out, nil
}

func label(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("stream #%d", i)
}
