package main

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"
	"os"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/andybalholm/brotli/matchfinder"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
	"nikand.dev/go/cli"
	"tlog.app/go/eazy"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kulaginds/lzmatch"
	lzlz4 "github.com/kulaginds/lzmatch/lz4"
	lzsnappy "github.com/kulaginds/lzmatch/snappy"
)

const (
	brotliBlockSize   = 1 << 20
	brotliMaxHistory  = 1 << 20
	brotliMaxDistance = 1<<24 - 16
)

func main() {
	levelFlag := func() *cli.Flag { return cli.NewFlag("level,l", 6, "compression level 0..9") }
	outputFlag := func() *cli.Flag { return cli.NewFlag("output,o", "-", "output file (or stdout)") }
	formatFlag := func() *cli.Flag { return cli.NewFlag("format,f", "brotli", "stream format: brotli, snappy or lz4") }
	lazyFlag := func() *cli.Flag { return cli.NewFlag("lazy", false, "lazy matching") }

	app := &cli.Command{
		Name:        "lzmatch",
		Description: "binary tree match finder playground",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.FlagfileFlag,
			cli.HelpFlag,
		},
		Commands: []*cli.Command{{
			Name:        "compress,c",
			Description: "compress files (or stdin)",
			Action:      compress,
			Args:        cli.Args{},
			Flags:       []*cli.Flag{formatFlag(), levelFlag(), lazyFlag(), outputFlag()},
		}, {
			Name:        "decompress,d",
			Description: "decompress files (or stdin)",
			Action:      decompress,
			Args:        cli.Args{},
			Flags:       []*cli.Flag{formatFlag(), outputFlag()},
		}, {
			Name:        "matches,m",
			Description: "print the parse with matches as <length,distance>",
			Action:      matches,
			Args:        cli.Args{},
			Flags: []*cli.Flag{
				levelFlag(), lazyFlag(), outputFlag(),
				cli.NewFlag("min-length,min", 4, "shortest match to use"),
			},
		}, {
			Name:        "stats",
			Description: "match statistics",
			Action:      stats,
			Args:        cli.Args{},
			Flags: []*cli.Flag{
				levelFlag(), lazyFlag(),
				cli.NewFlag("min-length,min", 4, "shortest match to use"),
				cli.NewFlag("block-size,bs", brotliBlockSize, "parse block size"),
			},
		}, {
			Name:        "bench",
			Description: "compare compressed sizes with other compressors",
			Action:      bench,
			Args:        cli.Args{},
			Flags:       []*cli.Flag{levelFlag()},
		}},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags))

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compress(c *cli.Command) (err error) {
	w, closeOut, err := openOutput(c.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		e := closeOut()
		if err == nil {
			err = e
		}
	}()

	cw := &countWriter{w: w}

	zw, err := newWriter(cw, c.String("format"), c.Int("level"), c.Bool("lazy"))
	if err != nil {
		return err
	}

	n, err := copyInputs(zw, c.Args)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return errors.Wrap(err, "close compressor")
	}

	tlog.Printw("compressed", "format", c.String("format"), "in", n, "out", cw.n)

	return nil
}

func decompress(c *cli.Command) (err error) {
	w, closeOut, err := openOutput(c.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		e := closeOut()
		if err == nil {
			err = e
		}
	}()

	for _, name := range inputs(c.Args) {
		err = func() error {
			f, closeIn, err := openInput(name)
			if err != nil {
				return err
			}
			defer closeIn()

			r, err := newReader(f, c.String("format"))
			if err != nil {
				return err
			}

			n, err := io.Copy(w, r)
			if err != nil {
				return errors.Wrap(err, "decompress %v", name)
			}

			tlog.Printw("decompressed", "file", name, "out", n)

			return nil
		}()
		if err != nil {
			return err
		}
	}

	return nil
}

func matches(c *cli.Command) (err error) {
	w, closeOut, err := openOutput(c.String("output"))
	if err != nil {
		return err
	}
	defer func() {
		e := closeOut()
		if err == nil {
			err = e
		}
	}()

	p, err := newParser(c.Int("level"), c.Bool("lazy"), c.Int("min-length"))
	if err != nil {
		return err
	}

	mw := &matchfinder.Writer{
		Dest:        w,
		MatchFinder: p,
		Encoder:     lzmatch.TextEncoder{},
		BlockSize:   brotliBlockSize,
	}

	_, err = copyInputs(mw, c.Args)
	if err != nil {
		return err
	}

	return mw.Close()
}

func stats(c *cli.Command) error {
	data, err := readInputs(c.Args)
	if err != nil {
		return err
	}

	p, err := newParser(c.Int("level"), c.Bool("lazy"), c.Int("min-length"))
	if err != nil {
		return err
	}

	bs := c.Int("block-size")
	if bs <= 0 {
		return errors.New("bad block size: %v", bs)
	}

	start := time.Now()

	var ms []matchfinder.Match
	for i := 0; i < len(data); i += bs {
		ms = p.FindMatches(ms, data[i:min(i+bs, len(data))])
	}

	elapsed := time.Since(start)

	var (
		nMatches, matched, literals int
		hist                        [10]int
	)

	for _, m := range ms {
		literals += m.Unmatched

		if m.Length == 0 {
			continue
		}

		nMatches++
		matched += m.Length
		hist[min(bits.Len(uint(m.Length))-1, len(hist)-1)]++
	}

	var check bytes.Buffer

	err = lzmatch.Replay(&check, data, ms, int(p.Options().HistorySize))
	if err != nil {
		return errors.Wrap(err, "replay")
	}

	if !bytes.Equal(check.Bytes(), data) {
		return errors.New("replayed data differs")
	}

	fmt.Printf("bytes     %d\n", len(data))
	fmt.Printf("literals  %d\n", literals)
	fmt.Printf("matches   %d\n", nMatches)
	fmt.Printf("matched   %d\n", matched)

	if nMatches != 0 {
		fmt.Printf("avg len   %.2f\n", float64(matched)/float64(nMatches))
	}

	for i, n := range hist {
		if n == 0 {
			continue
		}

		fmt.Printf("len %4d+ %d\n", 1<<i, n)
	}

	tlog.Printw("stats", "bytes", len(data), "matches", nMatches, "elapsed", elapsed)

	return nil
}

func bench(c *cli.Command) error {
	data, err := readInputs(c.Args)
	if err != nil {
		return err
	}

	level := c.Int("level")

	type result struct {
		name string
		size int
		dur  time.Duration
	}

	var res []result

	run := func(name string, f func(w io.Writer) error) error {
		var buf bytes.Buffer

		start := time.Now()

		err := f(&buf)
		if err != nil {
			return errors.Wrap(err, "%v", name)
		}

		res = append(res, result{name: name, size: buf.Len(), dur: time.Since(start)})

		return nil
	}

	writeAll := func(zw io.WriteCloser, err error) error {
		if err != nil {
			return err
		}

		_, err = zw.Write(data)
		if err != nil {
			return err
		}

		return zw.Close()
	}

	for _, format := range []string{"brotli", "snappy", "lz4"} {
		err = run("lzmatch-"+format, func(w io.Writer) error {
			return writeAll(newWriter(w, format, level, level >= 5))
		})
		if err != nil {
			return err
		}
	}

	err = run("brotli", func(w io.Writer) error {
		return writeAll(brotli.NewWriterLevel(w, level), nil)
	})
	if err != nil {
		return err
	}

	err = run("s2-snappy-best", func(w io.Writer) error {
		_, err := w.Write(s2.EncodeSnappyBest(nil, data))
		return err
	})
	if err != nil {
		return err
	}

	err = run("eazy", func(w io.Writer) error {
		_, err := eazy.NewWriter(w, eazy.MiB, 1024).Write(data)
		return err
	})
	if err != nil {
		return err
	}

	for _, r := range res {
		ratio := 0.
		if r.size != 0 {
			ratio = float64(len(data)) / float64(r.size)
		}

		fmt.Printf("%-16s %10d  %6.3f  %v\n", r.name, r.size, ratio, r.dur)
	}

	return nil
}

func newParser(level int, lazy bool, minLength int) (*lzmatch.Parser, error) {
	opts := lzmatch.LevelOptions(level)

	p, err := lzmatch.NewParser(opts)
	if err != nil {
		return nil, err
	}

	p.Lazy = lazy
	p.MinLength = minLength
	p.MaxHistory = int(min(opts.HistorySize, brotliMaxHistory))

	return p, nil
}

func newWriter(w io.Writer, format string, level int, lazy bool) (io.WriteCloser, error) {
	switch format {
	case "brotli", "br":
		opts := lzmatch.LevelOptions(level)
		opts.HistorySize = min(opts.HistorySize, brotliMaxDistance)

		p, err := lzmatch.NewParser(opts)
		if err != nil {
			return nil, err
		}

		p.Lazy = lazy
		p.MaxHistory = brotliMaxHistory

		return &matchfinder.Writer{
			Dest:        w,
			MatchFinder: p,
			Encoder:     &brotli.Encoder{},
			BlockSize:   brotliBlockSize,
		}, nil
	case "snappy", "sz":
		mw, err := lzsnappy.NewWriter(w, level)
		if err != nil {
			return nil, err
		}

		mw.MatchFinder.(*lzmatch.Parser).Lazy = lazy

		return mw, nil
	case "lz4":
		mw, err := lzlz4.NewWriter(w, level)
		if err != nil {
			return nil, err
		}

		mw.MatchFinder.(*lzmatch.Parser).Lazy = lazy

		return mw, nil
	default:
		return nil, errors.New("unsupported format: %v", format)
	}
}

func newReader(r io.Reader, format string) (io.Reader, error) {
	switch format {
	case "brotli", "br":
		return brotli.NewReader(r), nil
	case "snappy", "sz":
		return snappy.NewReader(r), nil
	case "lz4":
		return lz4.NewReader(r), nil
	default:
		return nil, errors.New("unsupported format: %v", format)
	}
}

type countWriter struct {
	w io.Writer
	n int64
}

func (w *countWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.n += int64(n)

	return n, err
}

func inputs(args cli.Args) []string {
	if len(args) == 0 {
		return []string{"-"}
	}

	return args
}

func openInput(name string) (io.Reader, func() error, error) {
	if name == "-" {
		return os.Stdin, func() error { return nil }, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input")
	}

	return f, f.Close, nil
}

func openOutput(name string) (io.Writer, func() error, error) {
	if name == "" || name == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open output")
	}

	return f, f.Close, nil
}

func copyInputs(w io.Writer, args cli.Args) (total int64, err error) {
	for _, name := range inputs(args) {
		r, closeIn, err := openInput(name)
		if err != nil {
			return total, err
		}

		n, err := io.Copy(w, r)
		total += n

		e := closeIn()
		if err == nil {
			err = e
		}

		if err != nil {
			return total, errors.Wrap(err, "copy %v", name)
		}
	}

	return total, nil
}

func readInputs(args cli.Args) ([]byte, error) {
	var buf bytes.Buffer

	_, err := copyInputs(&buf, args)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
