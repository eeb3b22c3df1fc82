package record

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecframe-go/Expr"
	"ecframe-go/dataframe"
	"ecframe-go/value"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// one column per supported type, with a null in every column on the last row
func sampleFrame(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	df := dataframe.New("sample")
	mustNoErr(t, df.AddStringColumn("Name"))
	mustNoErr(t, df.AddLongColumn("Id"))
	mustNoErr(t, df.AddDoubleColumn("Salary"))
	mustNoErr(t, df.AddBooleanColumn("Active"))
	mustNoErr(t, df.AddDateColumn("Hired"))
	mustNoErr(t, df.AddDateTimeColumn("Seen"))
	mustNoErr(t, df.AddRow("Alice", 1, 110000.0, true,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 10, 11, 1, 2, 3, 0, time.UTC)))
	mustNoErr(t, df.AddRow("Bob", 2, 100000.5, false,
		time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 11, 22, 13, 25, 36, 0, time.UTC)))
	mustNoErr(t, df.AddRow(nil, nil, nil, nil, nil, nil))
	return df
}

func assertSameRows(t *testing.T, want, got *dataframe.DataFrame) {
	t.Helper()
	if got.RowCount() != want.RowCount() {
		t.Fatalf("expected %d rows, got %d", want.RowCount(), got.RowCount())
	}
	if strings.Join(got.ColumnNames(), ",") != strings.Join(want.ColumnNames(), ",") {
		t.Fatalf("expected columns %v, got %v", want.ColumnNames(), got.ColumnNames())
	}
	for row := 0; row < want.RowCount(); row++ {
		w, err := want.Row(row)
		mustNoErr(t, err)
		g, err := got.Row(row)
		mustNoErr(t, err)
		for i := range w {
			if w[i].IsVoid() != g[i].IsVoid() {
				t.Fatalf("row %d column %s: expected %s, got %s", row, want.ColumnAt(i).Name(), w[i], g[i])
			}
			if !w[i].IsVoid() && !value.Same(w[i], g[i]) {
				t.Fatalf("row %d column %s: expected %s, got %s", row, want.ColumnAt(i).Name(), w[i], g[i])
			}
		}
	}
}

func TestArrow(t *testing.T) {
	t.Run("schema mapping", func(t *testing.T) {
		schema, err := Schema(sampleFrame(t))
		mustNoErr(t, err)
		expected := []arrow.DataType{
			arrow.BinaryTypes.String,
			arrow.PrimitiveTypes.Int64,
			arrow.PrimitiveTypes.Float64,
			arrow.FixedWidthTypes.Boolean,
			arrow.FixedWidthTypes.Date32,
			arrow.FixedWidthTypes.Timestamp_s,
		}
		for i, dt := range expected {
			if !arrow.TypeEqual(schema.Field(i).Type, dt) {
				t.Fatalf("field %d: expected %s, got %s", i, dt, schema.Field(i).Type)
			}
		}
	})
	t.Run("record round trip", func(t *testing.T) {
		df := sampleFrame(t)
		rec, err := ToRecord(df, memory.NewGoAllocator())
		mustNoErr(t, err)
		defer rec.Release()
		if rec.NumRows() != 3 {
			t.Fatalf("expected 3 rows, got %d", rec.NumRows())
		}
		if rec.Column(0).NullN() != 1 {
			t.Fatalf("expected one null in Name, got %d", rec.Column(0).NullN())
		}
		back, err := FromRecord("back", rec)
		mustNoErr(t, err)
		assertSameRows(t, df, back)
	})
	t.Run("computed columns are materialized", func(t *testing.T) {
		df := sampleFrame(t)
		bonus := Expr.NewBinaryExpr(Expr.Var("Salary"), Expr.Division, Expr.Long(10))
		mustNoErr(t, df.AddComputedColumn("Bonus", value.TypeDouble, bonus))
		rec, err := ToRecord(df, memory.NewGoAllocator())
		mustNoErr(t, err)
		defer rec.Release()
		back, err := FromRecord("back", rec)
		mustNoErr(t, err)
		col, err := back.Column("Bonus")
		mustNoErr(t, err)
		if !col.IsStored() {
			t.Fatalf("expected Bonus to be stored after the round trip")
		}
		v, err := back.Value("Bonus", 0)
		mustNoErr(t, err)
		if v.Double() != 11000.0 {
			t.Fatalf("expected 11000.0, got %s", v)
		}
	})
	t.Run("append record with wrong schema", func(t *testing.T) {
		rec, err := ToRecord(sampleFrame(t), memory.NewGoAllocator())
		mustNoErr(t, err)
		defer rec.Release()
		df := dataframe.New("other")
		mustNoErr(t, df.AddLongColumn("Id"))
		if err := AppendRecord(df, rec); err == nil {
			t.Fatalf("expected schema mismatch error")
		}
	})
}

func TestParquet(t *testing.T) {
	t.Run("write then read", func(t *testing.T) {
		df := sampleFrame(t)
		var buf bytes.Buffer
		mustNoErr(t, WriteParquet(&buf, df))
		back, err := ReadParquet(context.Background(), bytes.NewReader(buf.Bytes()), "back")
		mustNoErr(t, err)
		if back.Name() != "back" {
			t.Fatalf("expected frame name back, got %s", back.Name())
		}
		assertSameRows(t, df, back)
	})
	t.Run("caller keeps the file open", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "open.parquet"))
		mustNoErr(t, err)
		mustNoErr(t, WriteParquet(f, sampleFrame(t)))
		if _, err := f.Write(nil); err != nil {
			t.Fatalf("expected file to stay open, got %v", err)
		}
		mustNoErr(t, f.Close())
	})
	t.Run("not a parquet file", func(t *testing.T) {
		_, err := ReadParquet(context.Background(), bytes.NewReader([]byte("Name,Id\n")), "bad")
		if err == nil {
			t.Fatalf("expected error for non parquet input")
		}
	})
}

func TestLoadCSV(t *testing.T) {
	const input = `Name,Id,Salary,Active,Hired,Seen
Alice,1,110000,true,2020-01-01,2020-10-11T01:02:03
Bob,2,100000.5,false,2010-01-01,2020-11-22
Carl,NULL,,,,
`
	df, err := LoadCSV(strings.NewReader(input), "people", CSVOptions{NullToken: "NULL"})
	mustNoErr(t, err)

	t.Run("inferred types", func(t *testing.T) {
		expected := []value.Type{
			value.TypeString, value.TypeLong, value.TypeDouble,
			value.TypeBoolean, value.TypeDate, value.TypeDateTime,
		}
		for i, typ := range expected {
			if got := df.ColumnAt(i).Type(); got != typ {
				t.Fatalf("column %s: expected %s, got %s", df.ColumnAt(i).Name(), typ, got)
			}
		}
	})
	t.Run("values", func(t *testing.T) {
		if df.RowCount() != 3 {
			t.Fatalf("expected 3 rows, got %d", df.RowCount())
		}
		salary, ok, err := df.Double("Salary", 0)
		mustNoErr(t, err)
		if !ok || salary != 110000.0 {
			t.Fatalf("expected 110000.0, got %v (ok=%v)", salary, ok)
		}
		seen, err := df.Value("Seen", 1)
		mustNoErr(t, err)
		if seen.Format() != "2020-11-22T00:00:00" {
			t.Fatalf("expected date widened to midnight, got %s", seen.Format())
		}
	})
	t.Run("null token and empty cells", func(t *testing.T) {
		row, err := df.Row(2)
		mustNoErr(t, err)
		for i, v := range row[1:] {
			if !v.IsVoid() {
				t.Fatalf("column %s: expected Void, got %s", df.ColumnAt(i+1).Name(), v)
			}
		}
	})
	t.Run("all null column is string", func(t *testing.T) {
		df, err := LoadCSV(strings.NewReader("A,B\n1,\n2,\n"), "t", CSVOptions{})
		mustNoErr(t, err)
		if df.ColumnAt(1).Type() != value.TypeString {
			t.Fatalf("expected string, got %s", df.ColumnAt(1).Type())
		}
	})
	t.Run("ragged row", func(t *testing.T) {
		if _, err := LoadCSV(strings.NewReader("A,B\n1\n"), "t", CSVOptions{}); err == nil {
			t.Fatalf("expected error for short row")
		}
	})
	t.Run("empty input", func(t *testing.T) {
		if _, err := LoadCSV(strings.NewReader(""), "t", CSVOptions{}); err == nil {
			t.Fatalf("expected error for missing header")
		}
	})
	t.Run("mixed numbers widen to double", func(t *testing.T) {
		df, err := LoadCSV(strings.NewReader("A\n1\n2.5\n"), "t", CSVOptions{})
		mustNoErr(t, err)
		v, err := df.Value("A", 0)
		mustNoErr(t, err)
		if v.Type() != value.TypeDouble || v.Double() != 1.0 {
			t.Fatalf("expected double 1.0, got %s", v)
		}
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "people.csv")
		mustNoErr(t, os.WriteFile(path, []byte("Name,Age\nAlice,30\nBob,NULL\n"), 0o644))
		df, err := LoadFile(ctx, path)
		mustNoErr(t, err)
		if df.Name() != "people" {
			t.Fatalf("expected frame named people, got %s", df.Name())
		}
		age, err := df.Value("Age", 1)
		mustNoErr(t, err)
		if !age.IsVoid() {
			t.Fatalf("expected Void from default null token, got %s", age)
		}
	})
	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(dir, "sample.parquet")
		f, err := os.Create(path)
		mustNoErr(t, err)
		mustNoErr(t, WriteParquet(f, sampleFrame(t)))
		mustNoErr(t, f.Close())
		df, err := LoadFile(ctx, path)
		mustNoErr(t, err)
		assertSameRows(t, sampleFrame(t), df)
	})
	t.Run("unknown extension", func(t *testing.T) {
		if _, err := LoadFile(ctx, filepath.Join(dir, "data.json")); err == nil {
			t.Fatalf("expected error for unknown format")
		}
	})
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(ctx, filepath.Join(dir, "missing.csv")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
	t.Run("s3 location without key", func(t *testing.T) {
		if _, err := LoadFile(ctx, "s3://bucket"); err == nil {
			t.Fatalf("expected error for location without key")
		}
	})
}

func TestObjectSourceSeek(t *testing.T) {
	src := NewObjectSourceWithClient(context.Background(), nil, "bucket", "data/sample.parquet")
	if pos, err := src.Seek(10, io.SeekStart); err != nil || pos != 10 {
		t.Fatalf("expected 10, got %d (%v)", pos, err)
	}
	if pos, err := src.Seek(5, io.SeekCurrent); err != nil || pos != 15 {
		t.Fatalf("expected 15, got %d (%v)", pos, err)
	}
	if _, err := src.Seek(-20, io.SeekCurrent); err == nil {
		t.Fatalf("expected error seeking before start")
	}
	if _, err := src.Seek(0, 42); err == nil {
		t.Fatalf("expected error for unknown whence")
	}
	if formatOf(src.Key()) != MimeParquet || frameName(src.Key()) != "sample" {
		t.Fatalf("unexpected format or name for %s", src.Key())
	}
}

func TestIPC(t *testing.T) {
	t.Run("single frame", func(t *testing.T) {
		df := sampleFrame(t)
		var buf bytes.Buffer
		mustNoErr(t, WriteIPC(&buf, df))
		back, err := ReadIPC(&buf, "back")
		mustNoErr(t, err)
		assertSameRows(t, df, back)
	})
	t.Run("batches are concatenated", func(t *testing.T) {
		df := sampleFrame(t)
		var buf bytes.Buffer
		s, err := NewSerializer(&buf, df)
		mustNoErr(t, err)
		mustNoErr(t, s.Write(df))
		mustNoErr(t, s.Write(df))
		mustNoErr(t, s.Close())
		back, err := ReadIPC(&buf, "back")
		mustNoErr(t, err)
		if back.RowCount() != 2*df.RowCount() {
			t.Fatalf("expected %d rows, got %d", 2*df.RowCount(), back.RowCount())
		}
		name, ok, err := back.String("Name", 3)
		mustNoErr(t, err)
		if !ok || name != "Alice" {
			t.Fatalf("expected Alice at the start of the second batch, got %q", name)
		}
	})
	t.Run("frame with another schema", func(t *testing.T) {
		var buf bytes.Buffer
		s, err := NewSerializer(&buf, sampleFrame(t))
		mustNoErr(t, err)
		other := dataframe.New("other")
		mustNoErr(t, other.AddLongColumn("Id"))
		if err := s.Write(other); err == nil {
			t.Fatalf("expected schema error")
		}
	})
	t.Run("load file by extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sample.arrow")
		f, err := os.Create(path)
		mustNoErr(t, err)
		mustNoErr(t, WriteIPC(f, sampleFrame(t)))
		mustNoErr(t, f.Close())
		df, err := LoadFile(context.Background(), path)
		mustNoErr(t, err)
		assertSameRows(t, sampleFrame(t), df)
	})
}
