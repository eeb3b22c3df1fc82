package record

import (
	"context"
	"fmt"
	"io"
	"log"

	"ecframe-go/config"
	"ecframe-go/dataframe"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

// ReadParquet loads every row group of r into a new frame named name.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker, name string) (*dataframe.DataFrame, error) {
	allocator := memory.NewGoAllocator()
	fileReader, err := file.NewParquetReader(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := fileReader.Close(); err != nil {
			log.Printf("warning: failed to close parquet reader: %v", err)
		}
	}()

	arrowReader, err := pqarrow.NewFileReader(
		fileReader,
		pqarrow.ArrowReadProperties{Parallel: true, BatchSize: int64(config.GetConfig().Source.ParquetBatchSize)},
		allocator,
	)
	if err != nil {
		return nil, err
	}
	rdr, err := arrowReader.GetRecordReader(ctx, nil, nil)
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
	if err := rdr.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading parquet: %w", err)
	}
	return df, nil
}

// WriteParquet writes df, computed columns materialized, as a single row group. w stays open;
// closing it is up to the caller.
func WriteParquet(w io.Writer, df *dataframe.DataFrame) error {
	rec, err := ToRecord(df, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// the file writer closes sinks that implement io.Closer
	sink := struct{ io.Writer }{w}
	fw, err := pqarrow.NewFileWriter(rec.Schema(), sink, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return err
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}
