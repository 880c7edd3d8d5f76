package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const rootElement = "nmaprun"

var confAttr = regexp.MustCompile(`(\sconf=)("[^"]*"|'[^']*')`)

// normalizeConfidence rewrites conf attributes that are not integers to
// conf="0" so the parser does not reject the whole document over them.
func normalizeConfidence(data []byte) []byte {
	return confAttr.ReplaceAllFunc(data, func(m []byte) []byte {
		sub := confAttr.FindSubmatch(m)
		value := sub[2][1 : len(sub[2])-1]
		if _, err := strconv.Atoi(strings.TrimSpace(string(value))); err == nil {
			return m
		}
		out := make([]byte, 0, len(sub[1])+3)
		out = append(out, sub[1]...)
		return append(out, `"0"`...)
	})
}

// checkRoot verifies that the first element of data is <nmaprun>.
func checkRoot(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("no <%s> element found", rootElement)
			}
			return err
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != rootElement {
				return fmt.Errorf("unexpected root element <%s>", start.Name.Local)
			}
			return nil
		}
	}
}

// closeOpenElements truncates data after its last well-formed token and
// appends end tags for every element still open there, innermost first.
// Documents without an opened <nmaprun> root cannot be recovered.
func closeOpenElements(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		open     []string
		good     int64
		sawRoot  bool
		stopErr  error
		complete bool
	)

scan:
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if err == io.EOF {
				complete = len(open) == 0
			} else {
				stopErr = err
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(open) == 0 {
				if t.Name.Local != rootElement {
					return nil, fmt.Errorf("unexpected root element <%s>", t.Name.Local)
				}
				sawRoot = true
			}
			open = append(open, t.Name.Local)
		case xml.EndElement:
			if len(open) == 0 || open[len(open)-1] != t.Name.Local {
				// Mismatched end tag: keep what was consistent before it.
				stopErr = fmt.Errorf("unexpected end element </%s>", t.Name.Local)
				break scan
			}
			open = open[:len(open)-1]
		}
		good = dec.InputOffset()
	}

	if !sawRoot {
		if stopErr != nil {
			return nil, fmt.Errorf("no <%s> element before malformed input: %w", rootElement, stopErr)
		}
		return nil, fmt.Errorf("no <%s> element found", rootElement)
	}
	if complete {
		return data, nil
	}

	var buf bytes.Buffer
	buf.Grow(int(good) + len(open)*16)
	buf.Write(data[:good])
	for i := len(open) - 1; i >= 0; i-- {
		buf.WriteString("</")
		buf.WriteString(open[i])
		buf.WriteString(">")
	}
	return buf.Bytes(), nil
}
