// Package json wraps goccy/go-json so the rest of ratepipe shares one JSON
// configuration.
package json

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Number is a JSON number literal kept as text.
type Number = gojson.Number

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// Marshal encodes v.
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent encodes v with indentation.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// UnmarshalNumbers decodes data into v, keeping numbers as Number so that
// callers can tell integers from decimals and detect absent keys. Data must
// hold exactly one JSON value; anything but whitespace after it is an error.
func UnmarshalNumbers(data []byte, v interface{}) error {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra interface{}
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

// WriteArray writes values to w as a single JSON array. A non-empty indent
// pretty-prints one element per line.
func WriteArray[T any](w io.Writer, values []T, indent string) error {
	bw := bufio.NewWriter(w)
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)

	if _, err := bw.WriteString("["); err != nil {
		return err
	}
	for i, v := range values {
		buf.Reset()
		enc := gojson.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if indent != "" {
			enc.SetIndent(indent, indent)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
		if i > 0 {
			if _, err := bw.WriteString(","); err != nil {
				return err
			}
		}
		if indent != "" {
			if _, err := bw.WriteString("\n" + indent); err != nil {
				return err
			}
		}
		// Encode appends a newline
		if _, err := bw.Write(bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
			return err
		}
	}
	if indent != "" && len(values) > 0 {
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("]\n"); err != nil {
		return err
	}
	return bw.Flush()
}
