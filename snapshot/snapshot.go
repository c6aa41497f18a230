// Package snapshot persists prediction sets so a run can be re-scored
// without querying the prediction service again.
//
// A snapshot is a stream of length-delimited protobuf Struct messages: one
// header followed by one record per sentence in id order.
//
//	{"format": "srl-predictions", "version": 1, "sentences": 3}
//	{"id": "0", "predicates": [...], "roles": [[...], ...]}
package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jamesainslie/go-srl/dataset"
)

const (
	formatName = "srl-predictions"
	version    = 1

	maxRecordBytes = 64 << 20
)

// ErrFormat indicates a stream that is not a prediction snapshot.
var ErrFormat = errors.New("snapshot: malformed stream")

type header struct {
	Format    string `json:"format"`
	Version   int    `json:"version"`
	Sentences int    `json:"sentences"`
}

type record struct {
	ID string `json:"id"`
	dataset.Annotation
}

// Write encodes preds to w.
func Write(w io.Writer, preds dataset.Predictions) error {
	ids := preds.IDs()
	if err := writeRecord(w, header{Format: formatName, Version: version, Sentences: len(ids)}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, id := range ids {
		if err := writeRecord(w, record{ID: id, Annotation: preds[id]}); err != nil {
			return fmt.Errorf("write sentence %s: %w", id, err)
		}
	}
	return nil
}

func writeRecord(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return err
	}
	_, err = protodelim.MarshalTo(w, &s)
	return err
}

// Read decodes a snapshot from r. Roles are normalized with nullTag.
func Read(r io.Reader, nullTag string) (dataset.Predictions, error) {
	br := bufio.NewReader(r)

	var h header
	if err := readRecord(br, &h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty stream", ErrFormat)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if h.Format != formatName {
		return nil, fmt.Errorf("%w: format %q", ErrFormat, h.Format)
	}
	if h.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.Version)
	}

	preds := make(dataset.Predictions, h.Sentences)
	for {
		var rec struct {
			ID string `json:"id"`
			dataset.RawAnnotation
		}
		err := readRecord(br, &rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(preds), err)
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrFormat, len(preds))
		}
		if _, dup := preds[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate sentence %s", ErrFormat, rec.ID)
		}
		a, err := rec.Normalize(nullTag)
		if err != nil {
			return nil, fmt.Errorf("sentence %s: %w", rec.ID, err)
		}
		preds[rec.ID] = a
	}

	if len(preds) != h.Sentences {
		return nil, fmt.Errorf("%w: header announces %d sentences, found %d", ErrFormat, h.Sentences, len(preds))
	}
	return preds, nil
}

// readRecord decodes the next Struct into v. It returns io.EOF at a clean
// end of stream.
func readRecord(r *bufio.Reader, v any) error {
	var s structpb.Struct
	opts := protodelim.UnmarshalOptions{MaxSize: maxRecordBytes}
	if err := opts.UnmarshalFrom(r, &s); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	data, err := protojson.Marshal(&s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return nil
}

// Save writes preds to a snapshot file at path.
func Save(path string, preds dataset.Predictions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close snapshot: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, preds); err != nil {
		return err
	}
	return bw.Flush()
}

// Load reads a snapshot file.
func Load(path, nullTag string) (dataset.Predictions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	preds, err := Read(f, nullTag)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return preds, nil
}
