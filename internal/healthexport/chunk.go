// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthexport

import (
	"bytes"
	"html"
	"regexp"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/models"
)

var (
	// Only complete start tags match, so a tag cut by a chunk boundary is
	// left for the next window. Quoted values may contain '>'.
	elementPattern   = regexp.MustCompile(`<(Record|Workout)\s(?:[^>"']|"[^"]*"|'[^']*')*>`)
	attributePattern = regexp.MustCompile(`([A-Za-z_][\w.:-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

	commentOpen  = []byte("<!--")
	commentClose = []byte("-->")
)

// ChunkParser scans a record-log document delivered in arbitrary windows.
//
// State is the carryover plus whether the window boundary fell inside a
// comment. The carryover is the bytes after the last complete element that
// may begin an element not yet closed, or the tail of an open comment that
// may hold the start of its terminator. Each Feed prepends the carryover to
// the new window, drops comment spans, extracts every complete element, and
// keeps the trailing fragment. Peak unparsed memory is one window plus one
// carryover.
type ChunkParser struct {
	maxCarry  int
	carry     []byte
	scratch   []byte
	clean     []byte
	inComment bool
	collector *collector
	chunks    int
	sawMarker bool
}

// NewChunkParser returns a parser that refuses to carry more than maxCarry bytes
// between windows. A zero maxCarry uses DefaultChunkSize.
func NewChunkParser(maxCarry int) *ChunkParser {
	if maxCarry <= 0 {
		maxCarry = DefaultChunkSize
	}
	return &ChunkParser{maxCarry: maxCarry, collector: newCollector()}
}

// Feed parses one window. The parser does not retain chunk after returning.
func (p *ChunkParser) Feed(chunk []byte) error {
	p.chunks++

	p.scratch = append(p.scratch[:0], p.carry...)
	p.scratch = append(p.scratch, chunk...)
	data, commentTail := p.stripComments(p.scratch)

	if !p.sawMarker && hasRecordMarker(data) {
		p.sawMarker = true
	}

	end := 0
	for _, m := range elementPattern.FindAllSubmatchIndex(data, -1) {
		element := string(data[m[2]:m[3]])
		p.collector.add(element, tagAttrs(data[m[0]:m[1]]))
		end = m[1]
	}

	if p.inComment {
		p.carry = append(p.carry[:0], commentTail...)
		return nil
	}

	rest := data[end:]
	open := bytes.LastIndexByte(rest, '<')
	if open < 0 || tagClosed(rest[open:]) {
		p.carry = p.carry[:0]
		return nil
	}

	fragment := rest[open:]
	if len(fragment) > p.maxCarry {
		return &ingest.CapacityError{Size: int64(len(fragment)), Limit: int64(p.maxCarry)}
	}
	p.carry = append(p.carry[:0], fragment...)
	return nil
}

// stripComments copies data without its comment spans. When the window ends
// inside a comment, the returned tail is the last bytes of that comment that
// could begin its terminator.
func (p *ChunkParser) stripComments(data []byte) (clean, commentTail []byte) {
	p.clean = p.clean[:0]
	i := 0
	for i < len(data) {
		if p.inComment {
			closeAt := bytes.Index(data[i:], commentClose)
			if closeAt < 0 {
				tail := len(data) - (len(commentClose) - 1)
				if tail < i {
					tail = i
				}
				return p.clean, data[tail:]
			}
			i += closeAt + len(commentClose)
			p.inComment = false
			continue
		}
		openAt := bytes.Index(data[i:], commentOpen)
		if openAt < 0 {
			p.clean = append(p.clean, data[i:]...)
			break
		}
		p.clean = append(p.clean, data[i:i+openAt]...)
		i += openAt + len(commentOpen)
		p.inComment = true
	}
	return p.clean, nil
}

// tagClosed reports whether the markup starting at fragment[0] has an
// unquoted '>'.
func tagClosed(fragment []byte) bool {
	var quote byte
	for _, c := range fragment {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return true
		}
	}
	return false
}

// Chunks returns the number of windows fed so far.
func (p *ChunkParser) Chunks() int {
	return p.chunks
}

// Finish returns the parsed log. A non-empty carryover at end of input is a
// truncated element and is discarded.
func (p *ChunkParser) Finish() (*models.RecordLog, bool) {
	p.carry = nil
	p.scratch = nil
	p.clean = nil
	return p.collector.log, p.sawMarker
}

// tagAttrs parses the attributes of one start tag. Values are unescaped the
// same way the XML decoder does so both parse paths agree.
func tagAttrs(tag []byte) attrFunc {
	attrs := make(map[string]string, 8)
	for _, m := range attributePattern.FindAllSubmatch(tag, -1) {
		name := string(m[1])
		if _, dup := attrs[name]; dup {
			continue
		}
		value := m[2]
		if value == nil {
			value = m[3]
		}
		attrs[name] = html.UnescapeString(string(value))
	}
	return func(name string) string {
		return attrs[name]
	}
}
