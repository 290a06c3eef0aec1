// Package domain defines the batch payload carried by queue jobs and the
// per-job results aggregated into pipeline progress.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
)

// Batch is an ordered slice of records plus its zero-based index. The index is
// a correlation id for output artifacts and logs and carries no ordering.
type Batch struct {
	Records    []customerDomain.CustomerRecord `json:"batch"`
	BatchIndex int                             `json:"batchIndex"`
}

// Clone returns a batch whose records can be modified without touching b.
func (b Batch) Clone() Batch {
	records := make([]customerDomain.CustomerRecord, len(b.Records))
	copy(records, b.Records)
	return Batch{Records: records, BatchIndex: b.BatchIndex}
}

// Encode serializes the batch as a job payload.
func (b Batch) Encode() (json.RawMessage, error) {
	if b.Records == nil {
		b.Records = []customerDomain.CustomerRecord{}
	}
	return json.Marshal(b)
}

// wireBatch detects missing keys, which a plain Batch would zero silently.
type wireBatch struct {
	Records    *[]customerDomain.CustomerRecord `json:"batch"`
	BatchIndex *int                             `json:"batchIndex"`
}

// DecodeBatch parses a job payload strictly: both keys are required, unknown
// top-level keys are rejected and the index must not be negative. Any failure
// wraps ErrInvalidPayload.
func DecodeBatch(payload []byte) (Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var w wireBatch
	if err := dec.Decode(&w); err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if w.Records == nil {
		return Batch{}, fmt.Errorf("%w: missing batch", ErrInvalidPayload)
	}
	if w.BatchIndex == nil {
		return Batch{}, fmt.Errorf("%w: missing batchIndex", ErrInvalidPayload)
	}
	if *w.BatchIndex < 0 {
		return Batch{}, fmt.Errorf("%w: negative batchIndex %d", ErrInvalidPayload, *w.BatchIndex)
	}

	return Batch{Records: *w.Records, BatchIndex: *w.BatchIndex}, nil
}

// Partition splits records into ceil(n/size) batches indexed from 0. The last
// batch may be short and an empty input yields no batches.
func Partition(records []customerDomain.CustomerRecord, size int) ([]Batch, error) {
	if size <= 0 {
		return nil, ErrInvalidBatchSize
	}

	batches := make([]Batch, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, Batch{
			Records:    records[start:end:end],
			BatchIndex: len(batches),
		})
	}
	return batches, nil
}
