package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/sukesh19/huffman"
)

const sampleText = `
    This is a sample text for Huffman coding demonstration.
    The algorithm will compress this text by assigning shorter codes
    to more frequently occurring characters. This results in significant
    space savings for text files with repetitive patterns.
    `

func currentSettings(ctx *cli.Context) settings {
	return ctx.App.Metadata["settings"].(settings)
}

func twoArgs(ctx *cli.Context) (string, string, error) {
	if ctx.NArg() != 2 {
		return "", "", fmt.Errorf("%s: expected %s, got %d arguments", ctx.Command.Name, ctx.Command.ArgsUsage, ctx.NArg())
	}
	return ctx.Args().Get(0), ctx.Args().Get(1), nil
}

func compressAction(ctx *cli.Context) error {
	in, out, err := twoArgs(ctx)
	if err != nil {
		return err
	}
	_, err = compressFile(ctx, in, out)
	return err
}

func compressFile(ctx *cli.Context, in, out string) (huffman.Stats, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return huffman.Stats{}, err
	}
	if !utf8.Valid(data) {
		return huffman.Stats{}, fmt.Errorf("%s is not valid UTF-8 text", in)
	}
	if len(data) == 0 {
		log.Warningf("%s is empty, writing an empty archive", in)
	}

	s := currentSettings(ctx)
	archive, err := huffman.NewEncoder(s.encoderOptions()...).EncodeContext(ctx.Context, string(data))
	if err != nil {
		return huffman.Stats{}, fmt.Errorf("compress %s: %w", in, err)
	}
	log.Debugf("built code table with %d symbols, longest code %d bits", archive.Table.Len(), archive.Table.MaxCodeLen())

	blob, err := archive.MarshalBinary()
	if err != nil {
		return huffman.Stats{}, err
	}
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		return huffman.Stats{}, err
	}
	log.Infof("wrote %s (%d bytes)", out, len(blob))

	st := archive.Stats()
	w := ctx.App.Writer
	fmt.Fprintln(w, "Compression complete!")
	fmt.Fprintf(w, "Original size: %d bits\n", st.OriginalBits)
	fmt.Fprintf(w, "Compressed size: %d bits\n", st.CompressedBits)
	fmt.Fprintf(w, "Compression ratio: %.2f%%\n", st.Ratio())
	return st, nil
}

func decompressAction(ctx *cli.Context) error {
	in, out, err := twoArgs(ctx)
	if err != nil {
		return err
	}
	return decompressFile(ctx, in, out)
}

func readArchive(path string) (*huffman.Archive, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var archive huffman.Archive
	if err := archive.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	return &archive, nil
}

func decompressFile(ctx *cli.Context, in, out string) error {
	archive, err := readArchive(in)
	if err != nil {
		return err
	}
	text, err := archive.DecodeString()
	if err != nil {
		return fmt.Errorf("decompress %s: %w", in, err)
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return err
	}
	log.Infof("decoded %d symbols from %s", archive.SymbolCount, in)
	fmt.Fprintf(ctx.App.Writer, "Decompression complete! File saved as '%s'\n", out)
	return nil
}

func statAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("stat: expected %s", ctx.Command.ArgsUsage)
	}
	cache, err := huffman.NewTreeCache(currentSettings(ctx).CacheSize)
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	var failed []error
	for _, path := range ctx.Args().Slice() {
		archive, err := readArchive(path)
		if err == nil {
			_, err = cache.Decode(archive)
		}
		if err != nil {
			log.Errorf("%s: %v", path, err)
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
			continue
		}
		st := archive.Stats()
		fmt.Fprintf(w, "%s: symbols=%d distinct=%d original=%d bits compressed=%d bits ratio=%.2f%% max_code=%d\n",
			path, st.Symbols, st.Distinct, st.OriginalBits, st.CompressedBits, st.Ratio(), st.MaxCodeLen)
	}
	log.Debugf("tree cache holds %d trees", cache.Len())
	return errors.Join(failed...)
}

func demoAction(ctx *cli.Context) error {
	dir := ctx.String(DirFlag.Name)
	sample := filepath.Join(dir, "sample.txt")
	compressed := filepath.Join(dir, "compressed.bin")
	decompressed := filepath.Join(dir, "decompressed.txt")

	if err := os.WriteFile(sample, []byte(sampleText), 0o644); err != nil {
		return err
	}

	w := ctx.App.Writer
	fmt.Fprintln(w, "Compressing file...")
	if _, err := compressFile(ctx, sample, compressed); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nDecompressing file...")
	if err := decompressFile(ctx, compressed, decompressed); err != nil {
		return err
	}

	want, err := os.ReadFile(sample)
	if err != nil {
		return err
	}
	got, err := os.ReadFile(decompressed)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		fmt.Fprintln(w, "\n✗ Error in compression/decompression")
		return fmt.Errorf("demo: %s differs from %s", decompressed, sample)
	}
	fmt.Fprintln(w, "\n✓ Compression and decompression successful!")
	return nil
}
