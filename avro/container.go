package avro

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/avrobj/rowdata"
)

var containerMagic = []byte("Obj\x01")

// Container file metadata keys.
const (
	metaSchema = "avro.schema"
	metaCodec  = "avro.codec"
)

// Block compression codecs.
const (
	CodecNull    = "null"
	CodecDeflate = "deflate"
	CodecSnappy  = "snappy"
)

var (
	// ErrBadMagic is returned when a stream does not begin with the object
	// container file magic.
	ErrBadMagic = errors.New("invalid container file magic")

	// ErrBadSync is returned when a data block's trailing sync marker does
	// not match the file header's.
	ErrBadSync = errors.New("sync marker mismatch")

	// ErrUnknownCodec is returned for unsupported block compression codecs.
	ErrUnknownCodec = errors.New("unknown compression codec")
)

type containerOptions struct {
	logger        log.Logger
	registerer    prometheus.Registerer
	readerOptions []ReaderOption
}

// A ContainerOption customizes a [ContainerReader].
type ContainerOption func(*containerOptions)

// WithLogger sets the logger used for block-level debug logging.
func WithLogger(logger log.Logger) ContainerOption {
	return func(o *containerOptions) { o.logger = logger }
}

// WithRegisterer registers the reader's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) ContainerOption {
	return func(o *containerOptions) { o.registerer = reg }
}

// WithReaderOptions forwards options to the value reader built from the
// file's writer schema.
func WithReaderOptions(opts ...ReaderOption) ContainerOption {
	return func(o *containerOptions) { o.readerOptions = opts }
}

// A ContainerReader reads records from an Avro object container file: a
// header carrying the writer schema, codec and a sync marker, followed by
// compressed data blocks each holding a record count, block data and the
// sync marker. ContainerReader is not safe for concurrent use.
type ContainerReader struct {
	br      io.Reader
	release func()

	hdec   *BinaryDecoder
	schema *Schema
	codec  string
	meta   map[string][]byte
	sync   [16]byte
	reader ValueReader

	// current block state.
	remaining int64
	blockBuf  []byte
	blockData bytes.Reader
	bdec      *BinaryDecoder

	logger  log.Logger
	metrics *containerMetrics
}

// NewContainerReader opens an object container file from r, parsing the
// header and building the value reader tree for the writer schema.
func NewContainerReader(r io.Reader, opts ...ContainerOption) (*ContainerReader, error) {
	options := containerOptions{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&options)
	}

	br, release := getBufioReader(r)

	c := &ContainerReader{
		br:      br,
		release: release,
		hdec:    NewBinaryDecoder(br),
		logger:  options.logger,
		metrics: newContainerMetrics(),
	}
	if options.registerer != nil {
		if err := c.metrics.register(options.registerer); err != nil {
			release()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	if err := c.readHeader(options.readerOptions); err != nil {
		release()
		return nil, err
	}
	return c, nil
}

func (c *ContainerReader) readHeader(readerOptions []ReaderOption) error {
	var magic [4]byte
	if err := c.hdec.ReadFixed(magic[:]); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(magic[:], containerMagic) {
		return ErrBadMagic
	}

	c.meta = make(map[string][]byte)
	n, err := c.hdec.ReadMapStart()
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	for n > 0 {
		for i := int64(0); i < n; i++ {
			key, err := c.hdec.ReadString(nil)
			if err != nil {
				return fmt.Errorf("read metadata key: %w", err)
			}
			value, err := c.hdec.ReadBytes(nil)
			if err != nil {
				return fmt.Errorf("read metadata value: %w", err)
			}
			c.meta[string(key)] = value
		}
		n, err = c.hdec.MapNext()
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
	}

	c.codec = CodecNull
	if raw, ok := c.meta[metaCodec]; ok && len(raw) > 0 {
		c.codec = string(raw)
	}
	switch c.codec {
	case CodecNull, CodecDeflate, CodecSnappy:
	default:
		return fmt.Errorf("codec %q: %w", c.codec, ErrUnknownCodec)
	}

	rawSchema, ok := c.meta[metaSchema]
	if !ok {
		return errors.New("container file missing avro.schema metadata")
	}
	c.schema, err = ParseSchema(rawSchema)
	if err != nil {
		return err
	}
	c.reader, err = NewReader(c.schema, readerOptions...)
	if err != nil {
		return err
	}

	if err := c.hdec.ReadFixed(c.sync[:]); err != nil {
		return fmt.Errorf("read sync marker: %w", err)
	}
	return nil
}

// Schema returns the writer schema parsed from the file header.
func (c *ContainerReader) Schema() *Schema { return c.schema }

// Codec returns the block compression codec name.
func (c *ContainerReader) Codec() string { return c.codec }

// Metadata returns the raw file metadata map.
func (c *ContainerReader) Metadata() map[string][]byte { return c.meta }

// Read decodes and returns the next record. It returns io.EOF after the
// last record of the last block.
func (c *ContainerReader) Read() (rowdata.Value, error) {
	for c.remaining == 0 {
		if err := c.nextBlock(); err != nil {
			return rowdata.Value{}, err
		}
	}

	v, err := c.reader.Read(c.bdec, rowdata.Value{})
	if err != nil {
		c.metrics.decodeFailures.Inc()
		return rowdata.Value{}, fmt.Errorf("decode record: %w", err)
	}
	c.remaining--
	c.metrics.recordsRead.Inc()
	return v, nil
}

func (c *ContainerReader) nextBlock() error {
	count, err := c.hdec.ReadLong()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read block count: %w", err)
	}
	size, err := c.hdec.ReadLong()
	if err != nil {
		return fmt.Errorf("read block size: %w", err)
	}
	if count < 0 || size < 0 {
		return fmt.Errorf("invalid block header: count=%d size=%d", count, size)
	}

	if int64(cap(c.blockBuf)) < size {
		c.blockBuf = make([]byte, size)
	}
	c.blockBuf = c.blockBuf[:size]
	if err := c.hdec.ReadFixed(c.blockBuf); err != nil {
		return fmt.Errorf("read block data: %w", err)
	}

	var sync [16]byte
	if err := c.hdec.ReadFixed(sync[:]); err != nil {
		return fmt.Errorf("read block sync: %w", err)
	}
	if sync != c.sync {
		return ErrBadSync
	}

	data, err := c.decompress(c.blockBuf)
	if err != nil {
		return fmt.Errorf("decompress block: %w", err)
	}

	c.blockData.Reset(data)
	if c.bdec == nil {
		c.bdec = NewBinaryDecoder(&c.blockData)
	} else {
		c.bdec.Reset(&c.blockData)
	}
	c.remaining = count

	c.metrics.blocksRead.Inc()
	c.metrics.compressedRead.Add(float64(size))
	level.Debug(c.logger).Log("msg", "read block", "records", count, "compressed_bytes", size)
	return nil
}

func (c *ContainerReader) decompress(block []byte) ([]byte, error) {
	switch c.codec {
	case CodecNull:
		return block, nil

	case CodecDeflate:
		fr := flate.NewReader(bytes.NewReader(block))
		data, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		if err := fr.Close(); err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return data, nil

	case CodecSnappy:
		if len(block) < 4 {
			return nil, errors.New("snappy block too short")
		}
		data, err := snappy.Decode(nil, block[:len(block)-4])
		if err != nil {
			return nil, fmt.Errorf("snappy: %w", err)
		}
		want := binary.BigEndian.Uint32(block[len(block)-4:])
		if got := crc32.ChecksumIEEE(data); got != want {
			return nil, fmt.Errorf("snappy block checksum mismatch: got=%08x want=%08x", got, want)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("codec %q: %w", c.codec, ErrUnknownCodec)
	}
}

// Close releases resources held by the reader. It does not close the
// underlying reader.
func (c *ContainerReader) Close() error {
	if c.release != nil {
		c.release()
		c.release = nil
	}
	return nil
}
