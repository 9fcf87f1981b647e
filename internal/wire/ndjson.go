package wire

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const ContentTypeNDJSON = "application/x-ndjson"

// StreamDecoder reads a finite, one-shot NDJSON sequence of T. Recv returns
// io.EOF after the last element; the stream is not restartable.
type StreamDecoder[T any] struct {
	dec *json.Decoder
}

func NewStreamDecoder[T any](r io.Reader) *StreamDecoder[T] {
	return &StreamDecoder[T]{dec: json.NewDecoder(r)}
}

func (d *StreamDecoder[T]) Recv() (T, error) {
	var v T
	if err := d.dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, io.EOF
		}
		return v, err
	}
	return v, nil
}

// StreamEncoder writes an NDJSON sequence of T. When the underlying writer is
// an http.ResponseWriter that supports flushing, each element is flushed so
// consumers see it without waiting for the response to end.
type StreamEncoder[T any] struct {
	enc     *json.Encoder
	flusher http.Flusher
}

func NewStreamEncoder[T any](w io.Writer) *StreamEncoder[T] {
	e := &StreamEncoder[T]{enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

func (e *StreamEncoder[T]) Send(v T) error {
	if err := e.enc.Encode(v); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
