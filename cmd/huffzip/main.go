// huffzip compresses and decompresses text files with Huffman coding.
package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"
)

const progName = "huffzip"

var log = logging.MustGetLogger(progName)

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML configuration file",
	}
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Log level (critical|error|warning|notice|info|debug)",
		Value: defaultLogLevel,
	}
	TableCodecFlag = &cli.StringFlag{
		Name:  "table-codec",
		Usage: "Code table encoding in archives (auto|raw|flate|zstd)",
		Value: defaultTableCodec,
	}
	ChecksumFlag = &cli.BoolFlag{
		Name:  "checksum",
		Usage: "Write an xxhash checksum stage into archives",
		Value: true,
	}
	WorkersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Goroutines used to count symbol frequencies",
	}
	CacheSizeFlag = &cli.IntFlag{
		Name:  "cache-size",
		Usage: "Decoding trees kept in memory by stat",
		Value: defaultCacheSize,
	}
	DirFlag = &cli.StringFlag{
		Name:  "dir",
		Usage: "Directory the demo writes its files into",
		Value: ".",
	}
)

func newApp() *cli.App {
	app := &cli.App{
		Name:  progName,
		Usage: "Huffman text compressor",
		Flags: []cli.Flag{
			ConfigFlag,
			VerbosityFlag,
			TableCodecFlag,
			ChecksumFlag,
			WorkersFlag,
			CacheSizeFlag,
		},
		Before: func(ctx *cli.Context) error {
			s, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if err := startLogging(ctx.App.ErrWriter, s.LogLevel); err != nil {
				return err
			}
			ctx.App.Metadata["settings"] = s
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "compress",
				Usage:     "Compress a UTF-8 text file into an archive",
				ArgsUsage: "<input> <output>",
				Action:    compressAction,
			},
			{
				Name:      "decompress",
				Usage:     "Restore the text file from an archive",
				ArgsUsage: "<input> <output>",
				Action:    decompressAction,
			},
			{
				Name:      "stat",
				Usage:     "Verify archives and print their compression statistics",
				ArgsUsage: "<archive>...",
				Action:    statAction,
			},
			{
				Name:   "demo",
				Usage:  "Compress and decompress a sample text and compare the result",
				Flags:  []cli.Flag{DirFlag},
				Action: demoAction,
			},
		},
	}
	app.Metadata = map[string]interface{}{}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		os.Exit(1)
	}
}
