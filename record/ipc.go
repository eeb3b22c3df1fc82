package record

import (
	"errors"
	"fmt"
	"io"

	"ecframe-go/dataframe"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

/*
Frames are spilled and exchanged as Arrow IPC streams: one schema message, then one record batch
per call to Write. Every batch written through a Serializer shares its schema, so a reader can
validate each batch against the schema it read first.
*/

var ErrInvalidSchema = func(info string) error {
	return fmt.Errorf("invalid schema: %s", info)
}

// Serializer writes frames that all share one schema to a single IPC stream.
type Serializer struct {
	schema *arrow.Schema
	writer *ipc.Writer
	mem    memory.Allocator
}

// NewSerializer starts a stream for frames shaped like df. Nothing is written until the first
// call to Write.
func NewSerializer(w io.Writer, df *dataframe.DataFrame) (*Serializer, error) {
	schema, err := Schema(df)
	if err != nil {
		return nil, err
	}
	mem := memory.NewGoAllocator()
	return &Serializer{
		schema: schema,
		writer: ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem)),
		mem:    mem,
	}, nil
}

func (s *Serializer) Schema() *arrow.Schema { return s.schema }

// Write appends the rows of df as one record batch.
func (s *Serializer) Write(df *dataframe.DataFrame) error {
	schema, err := Schema(df)
	if err != nil {
		return err
	}
	if !s.schema.Equal(schema) {
		return ErrInvalidSchema("frame " + df.Name() + " does not match the stream schema")
	}
	rec, err := ToRecord(df, s.mem)
	if err != nil {
		return err
	}
	defer rec.Release()
	return s.writer.Write(rec)
}

// Close writes the end of stream marker.
func (s *Serializer) Close() error { return s.writer.Close() }

// WriteIPC writes df as a complete single batch stream.
func WriteIPC(w io.Writer, df *dataframe.DataFrame) error {
	s, err := NewSerializer(w, df)
	if err != nil {
		return err
	}
	if err := s.Write(df); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}

// ReadIPC reads every batch of an IPC stream into one frame.
func ReadIPC(r io.Reader, name string) (*dataframe.DataFrame, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, err
	}
	defer rdr.Release()

	df, err := NewFrame(name, rdr.Schema())
	if err != nil {
		return nil, err
	}
	for rdr.Next() {
		if err := AppendRecord(df, rdr.Record()); err != nil {
			return nil, err
		}
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading ipc stream: %w", err)
	}
	return df, nil
}
