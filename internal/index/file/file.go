// Package file stores index segments on disk.
//
// A segment is a directory named after the segment id:
//
//	<root>/<uuid>/
//	  docs.bin      format header 'D', msgpack segment metadata and document table
//	  dict.bin      format header 'T', term dictionary (see package inverted)
//	  postings.bin  format header 'P', posting blob, optionally seekable zstd
//
// Segments are written into a temporary directory that is renamed into
// place once every file is complete. Opened segments read posting lists on
// demand with ReadAt, so compressed blobs only decompress the frames a
// query touches.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"spansearch/internal/format"
	"spansearch/internal/index"
	"spansearch/internal/index/inverted"

	seekable "github.com/SaveTheRbtz/zstd-seekable-format-go/pkg"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	docsFile     = "docs.bin"
	dictFile     = "dict.bin"
	postingsFile = "postings.bin"

	formatVersion = 1

	// seekableFrameSize is the uncompressed size of one independently
	// decompressible frame of the posting blob.
	seekableFrameSize = 64 << 10

	defaultCacheSize = 1024
)

var ErrNotSegment = errors.New("not a segment directory")

// zstdDec is shared by all readers; it is safe for concurrent use.
var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("zstd: init decoder: " + err.Error())
	}
}

type docRecord struct {
	Name   string `msgpack:"n"`
	Corpus string `msgpack:"c"`
	Length int    `msgpack:"l"`
}

type segmentMeta struct {
	ID           string      `msgpack:"id"`
	Field        string      `msgpack:"field"`
	PostingsSize int64       `msgpack:"postings_size"`
	Docs         []docRecord `msgpack:"docs"`
}

type writeConfig struct {
	compress bool
}

// WriteOption configures Write.
type WriteOption func(*writeConfig)

// WithCompression stores the posting blob as seekable zstd frames.
func WithCompression(on bool) WriteOption {
	return func(c *writeConfig) { c.compress = on }
}

// IsSegment reports whether dir holds a segment.
func IsSegment(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, docsFile))
	return err == nil && info.Mode().IsRegular()
}

// Write stores seg below root and returns the segment directory.
func Write(root string, seg index.Segment, opts ...WriteOption) (string, error) {
	var cfg writeConfig
	for _, o := range opts {
		o(&cfg)
	}

	entries, err := collect(seg)
	if err != nil {
		return "", err
	}
	dict, blob, err := inverted.Encode(entries)
	if err != nil {
		return "", fmt.Errorf("encode postings: %w", err)
	}

	meta := segmentMeta{
		ID:           seg.ID().String(),
		Field:        seg.Field(),
		PostingsSize: int64(len(blob)),
	}
	for doc := range seg.NumDocs() {
		d, err := seg.Document(doc)
		if err != nil {
			return "", err
		}
		meta.Docs = append(meta.Docs, docRecord{Name: d.Name, Corpus: d.Corpus, Length: d.Length})
	}
	docs, err := msgpack.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("encode documents: %w", err)
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp(root, ".segment-*")
	if err != nil {
		return "", err
	}
	cleanup := func() { _ = os.RemoveAll(tmp) }

	if err := writeFile(filepath.Join(tmp, docsFile), format.TypeDocuments, docs); err != nil {
		cleanup()
		return "", err
	}
	if err := writeFile(filepath.Join(tmp, dictFile), format.TypeDictionary, dict); err != nil {
		cleanup()
		return "", err
	}
	if cfg.compress {
		err = writeCompressed(filepath.Join(tmp, postingsFile), format.TypePostings, blob)
	} else {
		err = writeFile(filepath.Join(tmp, postingsFile), format.TypePostings, blob)
	}
	if err != nil {
		cleanup()
		return "", err
	}

	dir := filepath.Join(root, meta.ID)
	if err := os.Rename(tmp, dir); err != nil {
		cleanup()
		return "", err
	}
	return dir, nil
}

// collect reads every posting list of seg in term order.
func collect(seg index.Segment) ([]inverted.Entry, error) {
	var terms []string
	if err := seg.Terms(seg.Field(), func(term string) bool {
		terms = append(terms, term)
		return true
	}); err != nil {
		return nil, err
	}

	entries := make([]inverted.Entry, 0, len(terms))
	for _, term := range terms {
		p, err := seg.Postings(seg.Field(), term)
		if err != nil {
			return nil, fmt.Errorf("postings %q: %w", term, err)
		}
		e := inverted.Entry{Term: term}
		for {
			ok, err := p.NextDoc()
			if err != nil {
				return nil, fmt.Errorf("postings %q: %w", term, err)
			}
			if !ok {
				break
			}
			e.Postings = append(e.Postings, index.DocPostings{
				Doc:         p.Doc(),
				Occurrences: slices.Clone(p.Occurrences()),
			})
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func header(typ byte, flags byte) []byte {
	h := format.Header{Type: typ, Version: formatVersion, Flags: format.FlagComplete | flags}
	buf := h.Encode()
	return buf[:]
}

func writeFile(path string, typ byte, body []byte) error {
	buf := make([]byte, 0, format.HeaderSize+len(body))
	buf = append(buf, header(typ, 0)...)
	buf = append(buf, body...)
	return os.WriteFile(path, buf, 0o640)
}

// writeCompressed writes body as seekable zstd frames of seekableFrameSize
// after an uncompressed header.
func writeCompressed(path string, typ byte, body []byte) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		_ = f.Close()
		return err
	}

	if _, err := f.Write(header(typ, format.FlagCompressed)); err != nil {
		return fail(err)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fail(err)
	}
	defer func() { _ = enc.Close() }()

	sw, err := seekable.NewWriter(f, enc)
	if err != nil {
		return fail(err)
	}
	for chunk := range slices.Chunk(body, seekableFrameSize) {
		if _, err := sw.Write(chunk); err != nil {
			return fail(err)
		}
	}
	if err := sw.Close(); err != nil {
		return fail(err)
	}
	return f.Close()
}

func readFile(path string, typ byte) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if _, err := format.DecodeAndValidate(data, typ, formatVersion); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return data[format.HeaderSize:], nil
}

// Segment is a read-only segment backed by a segment directory.
type Segment struct {
	dir   string
	id    uuid.UUID
	field string
	docs  []index.Document
	dict  *inverted.Dictionary

	file *os.File
	mu   sync.Mutex // serializes blob reads
	blob io.ReaderAt
	// closeBlob releases the decompressing reader, if any.
	closeBlob func() error

	cache *lru.Cache[string, []index.DocPostings]
}

var _ index.Segment = (*Segment)(nil)

type openConfig struct {
	cacheSize int
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

// WithCacheSize bounds the number of decoded posting lists kept in memory.
func WithCacheSize(n int) OpenOption {
	return func(c *openConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// Open opens the segment stored in dir.
func Open(dir string, opts ...OpenOption) (*Segment, error) {
	cfg := openConfig{cacheSize: defaultCacheSize}
	for _, o := range opts {
		o(&cfg)
	}

	if !IsSegment(dir) {
		return nil, fmt.Errorf("%w: %s", ErrNotSegment, dir)
	}

	raw, err := readFile(filepath.Join(dir, docsFile), format.TypeDocuments)
	if err != nil {
		return nil, err
	}
	var meta segmentMeta
	if err := msgpack.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", docsFile, err)
	}
	id, err := uuid.Parse(meta.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: segment id: %w", docsFile, err)
	}

	raw, err = readFile(filepath.Join(dir, dictFile), format.TypeDictionary)
	if err != nil {
		return nil, err
	}
	dict, err := inverted.DecodeDictionary(raw, int(meta.PostingsSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dictFile, err)
	}

	cache, err := lru.New[string, []index.DocPostings](cfg.cacheSize)
	if err != nil {
		return nil, err
	}

	s := &Segment{
		dir:   dir,
		id:    id,
		field: meta.Field,
		dict:  dict,
		cache: cache,
	}
	for _, d := range meta.Docs {
		s.docs = append(s.docs, index.Document{Name: d.Name, Corpus: d.Corpus, Length: d.Length})
	}
	if err := s.openBlob(meta.PostingsSize); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segment) openBlob(size int64) error {
	f, err := os.Open(filepath.Join(s.dir, postingsFile))
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	var hdr [format.HeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", postingsFile, format.ErrHeaderTooSmall)
	}
	h, err := format.DecodeAndValidate(hdr[:], format.TypePostings, formatVersion)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", postingsFile, err)
	}

	// The seekable reader must see the frames only, not the header.
	section := io.NewSectionReader(f, format.HeaderSize, info.Size()-format.HeaderSize)
	s.file = f
	s.closeBlob = func() error { return nil }
	if !h.Compressed() {
		if section.Size() != size {
			_ = f.Close()
			return fmt.Errorf("%s: %w", postingsFile, inverted.ErrPostingSizeMismatch)
		}
		s.blob = section
		return nil
	}

	r, err := seekable.NewReader(section, zstdDec)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", postingsFile, err)
	}
	s.blob = r
	s.closeBlob = r.Close
	return nil
}

// Dir returns the segment directory.
func (s *Segment) Dir() string { return s.dir }

func (s *Segment) ID() uuid.UUID { return s.id }
func (s *Segment) Field() string { return s.field }
func (s *Segment) NumDocs() int  { return len(s.docs) }

func (s *Segment) Document(doc int) (index.Document, error) {
	if doc < 0 || doc >= len(s.docs) {
		return index.Document{}, fmt.Errorf("%w: %d", index.ErrDocOutOfRange, doc)
	}
	return s.docs[doc], nil
}

func (s *Segment) Terms(field string, fn func(term string) bool) error {
	if field != s.field {
		return nil
	}
	s.dict.Terms("", fn)
	return nil
}

func (s *Segment) Postings(field, term string) (index.Postings, error) {
	if field != s.field {
		return index.EmptyPostings(), nil
	}
	if list, ok := s.cache.Get(term); ok {
		return index.NewSlicePostings(list), nil
	}
	ref, ok := s.dict.Lookup(term)
	if !ok {
		return index.EmptyPostings(), nil
	}

	buf := make([]byte, ref.Size)
	s.mu.Lock()
	if s.blob == nil {
		s.mu.Unlock()
		return nil, index.ErrSegmentClosed
	}
	n, err := s.blob.ReadAt(buf, int64(ref.Offset))
	s.mu.Unlock()
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, fmt.Errorf("read postings %q: %w", term, err)
	}

	list, err := inverted.DecodePostings(buf, int(ref.DocCount))
	if err != nil {
		return nil, fmt.Errorf("decode postings %q: %w", term, err)
	}
	s.cache.Add(term, list)
	return index.NewSlicePostings(list), nil
}

// Close releases the posting file. Later Postings calls fail with
// index.ErrSegmentClosed.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil
	}
	s.blob = nil
	s.cache.Purge()
	return errors.Join(s.closeBlob(), s.file.Close())
}
