package lzmatch

import (
	"bytes"

	"github.com/andybalholm/brotli/matchfinder"
	"tlog.app/go/tlog"
)

// Parser is a matchfinder.MatchFinder that parses blocks with a BinTree.
type Parser struct {
	// MaxHistory is how many bytes of earlier blocks are kept to find
	// matches in; 0 means every block is parsed on its own.
	MaxHistory int

	// MinLength is the shortest match that is not emitted as literals.
	// 0 means 4.
	MinLength int

	// Lazy postpones a match while the next position has a longer one.
	Lazy bool

	opts    Options
	bt      BinTree
	history []byte
	input   bytes.Reader
	scratch []Match
}

func NewParser(opts Options) (*Parser, error) {
	p := &Parser{opts: opts}

	err := p.bt.Create(opts)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Parser) Options() Options { return p.opts }

func (p *Parser) Reset() {
	p.history = p.history[:0]
}

// FindMatches parses src, appends the result to dst and returns dst.
func (p *Parser) FindMatches(dst []matchfinder.Match, src []byte) []matchfinder.Match {
	if len(src) == 0 {
		return dst
	}

	if p.bt.son == nil {
		if p.opts == (Options{}) {
			p.opts = DefaultOptions()
		}

		err := p.bt.Create(p.opts)
		if err != nil {
			panic(err)
		}
	}

	data := src
	prefix := 0

	if p.MaxHistory > 0 {
		if len(p.history) > p.MaxHistory {
			copy(p.history, p.history[len(p.history)-p.MaxHistory:])
			p.history = p.history[:p.MaxHistory]
		}

		prefix = len(p.history)
		p.history = append(p.history, src...)
		data = p.history
	}

	p.input.Reset(data)
	p.bt.SetStream(&p.input)
	defer p.bt.ReleaseStream()

	// bytes.Reader never fails: errors here are bugs.
	err := p.bt.Init()
	if err != nil {
		panic(err)
	}

	err = p.bt.Skip(prefix)
	if err != nil {
		panic(err)
	}

	minLen := uint32(p.MinLength)
	if minLen == 0 {
		minLen = 4
	}

	start := len(dst)
	cursor := prefix
	btPos := prefix
	nextEmit := prefix

	for cursor < len(data) {
		var l uint32
		var m Match

		p.scratch, l, err = p.bt.LongestMatch(p.scratch[:0])
		if err != nil {
			panic(err)
		}

		btPos++

		if l < minLen {
			cursor++
			continue
		}

		m, _ = Longest(p.scratch)

		for p.Lazy && btPos < len(data) {
			var next uint32

			p.scratch, next, err = p.bt.LongestMatch(p.scratch[:0])
			if err != nil {
				panic(err)
			}

			btPos++

			if next <= l {
				break
			}

			cursor++
			l = next
			m, _ = Longest(p.scratch)
		}

		dst = append(dst, matchfinder.Match{
			Unmatched: cursor - nextEmit,
			Length:    int(l),
			Distance:  int(m.Dist) + 1,
		})

		cursor += int(l)
		nextEmit = cursor

		err = p.bt.Skip(cursor - btPos)
		if err != nil {
			panic(err)
		}

		btPos = cursor
	}

	if nextEmit < len(data) {
		dst = append(dst, matchfinder.Match{Unmatched: len(data) - nextEmit})
	}

	tlog.V("lzmatch,parser").Printw("block", "size", len(src), "history", prefix, "matches", len(dst)-start)

	return dst
}
