package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/itsmostafa/doc2html/internal/structure"
)

// kerningGap is the TJ displacement, in thousandths of an em, read as a space.
const kerningGap = -200

func (e *Extractor) extractPDF(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	doc := &Document{Path: path, Format: FormatPDF, Pages: pdfCtx.PageCount}
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			e.logger.Debug("page content unavailable", "page", pageNr, "error", err)
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", pageNr, err)
		}
		for _, line := range contentLines(data) {
			if e.opts.ConvertSmartQuotes {
				line = ConvertSmartQuotes(line)
			}
			doc.Blocks = append(doc.Blocks, structure.TextBlock{
				Text:          line,
				Page:          pageNr,
				SequenceIndex: len(doc.Blocks),
			})
		}
	}
	return doc, nil
}

// contentLines interprets the text operators of a page content stream and
// returns the visual lines it draws.
func contentLines(data []byte) []string {
	var lines []string
	var cur strings.Builder
	newline := func() {
		if s := collapseSpaces(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	lex := &contentLexer{data: data}
	var operands []operand
	lastY := 0.0
	for {
		tok, ok := lex.next()
		if !ok {
			break
		}
		if tok.kind != kindOperator {
			operands = append(operands, tok)
			continue
		}
		if tok.text == "ID" {
			lex.skipInlineImage()
			operands = operands[:0]
			continue
		}

		switch tok.text {
		case "Tj":
			writeStrings(&cur, operands)
		case "TJ":
			for _, op := range operands {
				if op.kind == kindArray {
					writeArray(&cur, op.items)
				}
			}
		case "'", `"`:
			newline()
			if n := len(operands); n > 0 && operands[n-1].kind == kindString {
				cur.WriteString(operands[n-1].text)
			}
		case "Td", "TD":
			if n := len(operands); n >= 2 && operands[n-1].number() != 0 {
				newline()
			} else if cur.Len() > 0 {
				cur.WriteByte(' ')
			}
		case "Tm":
			if n := len(operands); n >= 6 {
				if y := operands[n-1].number(); y != lastY {
					newline()
					lastY = y
				}
			}
		case "T*", "ET":
			newline()
		}
		operands = operands[:0]
	}
	newline()
	return lines
}

func writeStrings(sb *strings.Builder, ops []operand) {
	for _, op := range ops {
		if op.kind == kindString {
			sb.WriteString(op.text)
		}
	}
}

func writeArray(sb *strings.Builder, items []operand) {
	for _, it := range items {
		switch it.kind {
		case kindString:
			sb.WriteString(it.text)
		case kindNumber:
			if it.number() <= kerningGap {
				sb.WriteByte(' ')
			}
		}
	}
}

func collapseSpaces(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = sb.Len() > 0
		case unicode.IsPrint(r):
			if space {
				sb.WriteByte(' ')
				space = false
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

type operandKind int

const (
	kindNumber operandKind = iota
	kindString
	kindArray
	kindName
	kindOperator
)

type operand struct {
	kind  operandKind
	text  string
	items []operand
}

func (o operand) number() float64 {
	if o.kind != kindNumber {
		return 0
	}
	f, _ := strconv.ParseFloat(o.text, 64)
	return f
}

// contentLexer tokenizes a PDF content stream.
type contentLexer struct {
	data []byte
	pos  int
}

func (l *contentLexer) next() (operand, bool) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return operand{}, false
	}

	c := l.data[l.pos]
	switch {
	case c == '(':
		return operand{kind: kindString, text: l.literal()}, true
	case c == '<' && l.peek(1) == '<':
		l.skipDict()
		return l.next()
	case c == '<':
		return operand{kind: kindString, text: l.hex()}, true
	case c == '[':
		l.pos++
		var items []operand
		for {
			l.skipSpace()
			if l.pos >= len(l.data) {
				break
			}
			if l.data[l.pos] == ']' {
				l.pos++
				break
			}
			it, ok := l.next()
			if !ok {
				break
			}
			items = append(items, it)
		}
		return operand{kind: kindArray, items: items}, true
	case c == '/':
		start := l.pos
		l.pos++
		l.word()
		return operand{kind: kindName, text: string(l.data[start:l.pos])}, true
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		start := l.pos
		l.pos++
		for l.pos < len(l.data) && (l.data[l.pos] == '.' || (l.data[l.pos] >= '0' && l.data[l.pos] <= '9')) {
			l.pos++
		}
		return operand{kind: kindNumber, text: string(l.data[start:l.pos])}, true
	case c == '%':
		for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
			l.pos++
		}
		return l.next()
	case c == ']' || c == ')' || c == '>' || c == '{' || c == '}':
		l.pos++
		return l.next()
	default:
		start := l.pos
		l.pos++
		if c != '\'' && c != '"' {
			l.word()
		}
		return operand{kind: kindOperator, text: string(l.data[start:l.pos])}, true
	}
}

// skipInlineImage jumps past the binary data of an inline image.
func (l *contentLexer) skipInlineImage() {
	for l.pos+2 < len(l.data) {
		if isPDFSpace(l.data[l.pos]) && l.data[l.pos+1] == 'E' && l.data[l.pos+2] == 'I' &&
			(l.pos+3 == len(l.data) || isPDFSpace(l.data[l.pos+3])) {
			l.pos += 3
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

func (l *contentLexer) peek(n int) byte {
	if l.pos+n < len(l.data) {
		return l.data[l.pos+n]
	}
	return 0
}

func (l *contentLexer) skipSpace() {
	for l.pos < len(l.data) && isPDFSpace(l.data[l.pos]) {
		l.pos++
	}
}

func (l *contentLexer) word() {
	for l.pos < len(l.data) && !isPDFSpace(l.data[l.pos]) && !isPDFDelim(l.data[l.pos]) {
		l.pos++
	}
}

func (l *contentLexer) skipDict() {
	depth := 0
	for l.pos+1 < len(l.data) {
		switch {
		case l.data[l.pos] == '<' && l.data[l.pos+1] == '<':
			depth++
			l.pos += 2
		case l.data[l.pos] == '>' && l.data[l.pos+1] == '>':
			depth--
			l.pos += 2
			if depth == 0 {
				return
			}
		default:
			l.pos++
		}
	}
	l.pos = len(l.data)
}

// literal reads a balanced (string) with escapes.
func (l *contentLexer) literal() string {
	l.pos++
	start := l.pos
	depth := 1
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '\\':
			l.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				raw := l.data[start:l.pos]
				l.pos++
				return decodePDFString(raw)
			}
		}
		l.pos++
	}
	return decodePDFString(l.data[start:])
}

// hex reads a <hex> string. Two-byte strings are read as UTF-16BE.
func (l *contentLexer) hex() string {
	l.pos++
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isPDFSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		raw = append(raw, byte(v))
	}
	return decodeBytes(raw)
}

// decodePDFString handles the escape sequences of literal strings.
func decodePDFString(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b', 'f':
		case '\r', '\n':
			// Line continuation.
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				out = append(out, byte(val))
			} else {
				out = append(out, raw[i])
			}
		}
	}
	return decodeBytes(out)
}

// decodeBytes reads UTF-16BE when a byte-order mark is present, otherwise
// Windows-1252, which agrees with PDFDocEncoding on printable ASCII.
func decodeBytes(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		out, err := xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewDecoder().Bytes(raw)
		if err == nil {
			return string(out)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}
