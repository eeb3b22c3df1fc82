package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"ecframe-go/config"
	"ecframe-go/dataframe"

	"github.com/minio/minio-go"
)

var (
	_ = (io.ReaderAt)(&ObjectSource{})
	_ = (io.Seeker)(&ObjectSource{})
)

type mime string

var (
	MimeCSV     mime = "csv"
	MimeParquet mime = "parquet"
	MimeArrow   mime = "arrow"
)

var ErrUnknownFormat = func(name string) error {
	return fmt.Errorf("cannot tell the format of %s, expected a .csv, .parquet or .arrow suffix", name)
}

// ObjectSource reads one object from an S3 compatible store. It serves CSV and Arrow streams
// whole and Parquet through ranged reads.
type ObjectSource struct {
	ctx    context.Context
	client *minio.Client
	bucket string
	key    string

	size   int64 // -1 until the object has been stat'ed
	offset int64
}

// NewObjectSource connects with the endpoint, bucket and credentials from config.
func NewObjectSource(ctx context.Context, key string) (*ObjectSource, error) {
	cfg := config.GetConfig()
	client, err := minio.New(cfg.Source.S3Endpoint, cfg.Secrets.S3AccessKey, cfg.Secrets.S3SecretKey, cfg.Source.S3UseSSL)
	if err != nil {
		return nil, err
	}
	return NewObjectSourceWithClient(ctx, client, cfg.Source.S3Bucket, key), nil
}

func NewObjectSourceWithClient(ctx context.Context, client *minio.Client, bucket, key string) *ObjectSource {
	return &ObjectSource{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
		size:   -1,
	}
}

func (o *ObjectSource) Key() string { return o.key }

// Stream returns the whole object. The caller closes it.
func (o *ObjectSource) Stream() (io.ReadCloser, error) {
	return o.client.GetObjectWithContext(o.ctx, o.bucket, o.key, minio.GetObjectOptions{})
}

// ReadAt implements io.ReaderAt for Parquet readers
func (o *ObjectSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+int64(len(p))-1); err != nil {
		return 0, err
	}
	obj, err := o.client.GetObjectWithContext(o.ctx, o.bucket, o.key, opts)
	if err != nil {
		return 0, err
	}
	defer obj.Close()
	return io.ReadFull(obj, p)
}

func (o *ObjectSource) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = o.offset + offset
	case io.SeekEnd:
		size, err := o.Size()
		if err != nil {
			return 0, err
		}
		abs = size + offset
	default:
		return 0, fmt.Errorf("unsupported seek mode for S3: %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("seek before start of object")
	}
	o.offset = abs
	return abs, nil
}

// Size stats the object once and remembers the result.
func (o *ObjectSource) Size() (int64, error) {
	if o.size >= 0 {
		return o.size, nil
	}
	info, err := o.client.StatObject(o.bucket, o.key, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object: %w", err)
	}
	o.size = info.Size
	return o.size, nil
}

// Load reads the object into a frame named after its key.
func (o *ObjectSource) Load() (*dataframe.DataFrame, error) {
	name := frameName(o.key)
	switch formatOf(o.key) {
	case MimeCSV:
		stream, err := o.Stream()
		if err != nil {
			return nil, err
		}
		defer stream.Close()
		return LoadCSV(stream, name, CSVOptions{NullToken: config.GetConfig().Source.CSVNullToken})
	case MimeParquet:
		return ReadParquet(o.ctx, o, name)
	case MimeArrow:
		stream, err := o.Stream()
		if err != nil {
			return nil, err
		}
		defer stream.Close()
		return ReadIPC(stream, name)
	}
	return nil, ErrUnknownFormat(o.key)
}

// LoadFile loads a local path, or an object when location is s3://bucket/key.
func LoadFile(ctx context.Context, location string) (*dataframe.DataFrame, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, key, found := strings.Cut(rest, "/")
		if !found || key == "" {
			return nil, fmt.Errorf("expected s3://bucket/key, got %s", location)
		}
		src, err := NewObjectSource(ctx, key)
		if err != nil {
			return nil, err
		}
		src.bucket = bucket
		return src.Load()
	}

	name := frameName(location)
	switch formatOf(location) {
	case MimeCSV:
		f, err := os.Open(location)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadCSV(f, name, CSVOptions{NullToken: config.GetConfig().Source.CSVNullToken})
	case MimeParquet:
		content, err := os.ReadFile(location)
		if err != nil {
			return nil, err
		}
		return ReadParquet(ctx, bytes.NewReader(content), name)
	case MimeArrow:
		f, err := os.Open(location)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadIPC(f, name)
	}
	return nil, ErrUnknownFormat(location)
}

func formatOf(name string) mime {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return MimeCSV
	case ".parquet", ".pq":
		return MimeParquet
	case ".arrow", ".arrows":
		return MimeArrow
	}
	return ""
}

func frameName(location string) string {
	base := path.Base(location)
	return strings.TrimSuffix(base, path.Ext(base))
}
