// Package huffman implements lossless Huffman coding of text.
//
// Compression counts symbol frequencies, builds an optimal prefix tree,
// derives a code table from it and concatenates the codes of the input
// symbols. The result is an Archive holding the encoded bits, the code table
// and the original symbol count, which is all a separate process needs to
// rebuild the tree and decode.
package huffman

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyInput is returned when a tree is requested for zero symbols.
	ErrEmptyInput = errors.New("huffman: empty input")
	// ErrMalformedTree indicates a tree whose internal nodes lack children.
	ErrMalformedTree = errors.New("huffman: malformed tree")
	// ErrUnknownSymbol is returned when encoding a symbol absent from the code table.
	ErrUnknownSymbol = errors.New("huffman: unknown symbol")
	// ErrTruncatedStream is returned when the encoded bits end inside a code.
	ErrTruncatedStream = errors.New("huffman: truncated stream")
	// ErrCorruptTree is returned when decoding reaches a missing child.
	ErrCorruptTree = errors.New("huffman: corrupt tree")
	// ErrAmbiguousCode indicates a code table that is not prefix-free.
	ErrAmbiguousCode = errors.New("huffman: ambiguous code")
	// ErrSymbolCountMismatch is returned when the decoded symbol count differs
	// from the count recorded in the archive.
	ErrSymbolCountMismatch = errors.New("huffman: symbol count mismatch")
	// ErrChecksumMismatch is returned when an archive's checksum stage does not
	// match its payloads.
	ErrChecksumMismatch = errors.New("huffman: archive checksum mismatch")
	// ErrUntrainedModel indicates Encode was called before a model was trained.
	ErrUntrainedModel = errors.New("huffman: model is not trained")
	// ErrTableMismatch is returned when a model decodes an archive encoded
	// with a different code table.
	ErrTableMismatch = errors.New("huffman: archive code table does not match model")
	// ErrInvalidText is returned for input that is not valid UTF-8.
	ErrInvalidText = errors.New("huffman: invalid UTF-8 text")
)

// TableCodec selects how the code table stage of an archive is stored.
type TableCodec uint8

const (
	TableCodecAuto  TableCodec = iota // smallest of the candidates below
	TableCodecRaw                     // uncompressed entries
	TableCodecFlate                   // DEFLATE
	TableCodecZstd                    // Zstandard
)

func (c TableCodec) String() string {
	switch c {
	case TableCodecAuto:
		return "auto"
	case TableCodecRaw:
		return "raw"
	case TableCodecFlate:
		return "flate"
	case TableCodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("TableCodec(%d)", uint8(c))
	}
}

// ParseTableCodec parses the names returned by TableCodec.String.
func ParseTableCodec(name string) (TableCodec, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return TableCodecAuto, nil
	case "raw":
		return TableCodecRaw, nil
	case "flate":
		return TableCodecFlate, nil
	case "zstd":
		return TableCodecZstd, nil
	default:
		return TableCodecAuto, fmt.Errorf("unknown table codec %q", name)
	}
}

// Config holds configuration for the encoder.
type Config struct {
	TableCodec TableCodec // Code table stage codec (0 = pick the smallest)
	NoChecksum bool       // Omit the checksum stage from serialized archives
	Workers    int        // Frequency counting goroutines (0 or 1 = sequential)
}

// Option is a functional option for configuring the encoder.
type Option func(*Config)

// WithTableCodec forces the codec used for the code table stage.
func WithTableCodec(c TableCodec) Option {
	return func(cfg *Config) {
		cfg.TableCodec = c
	}
}

// WithChecksum enables or disables the xxhash checksum stage. Enabled by default.
func WithChecksum(enabled bool) Option {
	return func(cfg *Config) {
		cfg.NoChecksum = !enabled
	}
}

// WithWorkers counts frequencies over n partitions in parallel.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		cfg.Workers = n
	}
}

func newConfig(opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Encoder compresses text into archives, deriving a fresh code table from
// each input.
type Encoder struct {
	config Config
}

// NewEncoder creates a new encoder with the given options.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{config: newConfig(opts)}
}

// Encode compresses text. Empty text yields an empty archive without
// building a tree.
func (e *Encoder) Encode(text string) (*Archive, error) {
	return e.EncodeContext(context.Background(), text)
}

// EncodeContext is like Encode; ctx bounds the parallel frequency count.
func (e *Encoder) EncodeContext(ctx context.Context, text string) (*Archive, error) {
	symbols, err := textSymbols(text)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return newEmptyArchive(e.config), nil
	}

	freq, err := CountParallel(ctx, symbols, e.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("count frequencies: %w", err)
	}
	tree, err := BuildTree(freq)
	if err != nil {
		return nil, err
	}
	table, err := GenerateCodes(tree)
	if err != nil {
		return nil, err
	}
	return encodeArchive(symbols, table, e.config)
}

// textSymbols splits text into runes. Invalid UTF-8 is an error, never U+FFFD.
func textSymbols(text string) ([]rune, error) {
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, fmt.Errorf("%w: byte offset %d", ErrInvalidText, i)
		}
		i += size
	}
	return []rune(text), nil
}

func encodeArchive(symbols []rune, table *CodeTable[rune], cfg Config) (*Archive, error) {
	if len(symbols) == 0 {
		return newEmptyArchive(cfg), nil
	}
	stream, err := Encode(symbols, table)
	if err != nil {
		return nil, err
	}
	return &Archive{
		Stream:      stream,
		Table:       table,
		SymbolCount: len(symbols),
		tableCodec:  cfg.TableCodec,
		noChecksum:  cfg.NoChecksum,
	}, nil
}

func newEmptyArchive(cfg Config) *Archive {
	return &Archive{
		Table:      &CodeTable[rune]{},
		tableCodec: cfg.TableCodec,
		noChecksum: cfg.NoChecksum,
	}
}
