// Package dynastream transforms DynamoDB Streams change records into application-friendly
// records, with the tagged attribute values in Keys, NewImage and OldImage decoded into native
// Go values, and optionally with a structural Diff between OldImage and NewImage added.
//
// Transformation is a pure function of its input. Nothing is retained between calls, and a
// Processor is safe for concurrent use.
package dynastream

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/zpiroux/dynastream/entity"
	"github.com/zpiroux/dynastream/internal/pkg/codec"
	"github.com/zpiroux/dynastream/internal/pkg/diff"
	"github.com/zpiroux/dynastream/internal/pkg/transform"
	"github.com/zpiroux/dynastream/internal/service"
)

// Error values returned by the dynastream API.
// Some of these errors will also contain additional details about the error.
// Error matching can still be done with 'if errors.Is(err, ErrInvalidInput)' etc.
// due to error wrapping.
var (
	ErrConfigNotInitialized = errors.New("dynastream.Config need to be created with NewConfig()")
	ErrInvalidSpec          = errors.New("config spec is not valid")

	// ErrInvalidInput is returned if the input is neither a record (JSON object) nor a batch
	// of records (JSON array). Nothing is processed.
	ErrInvalidInput = service.ErrInvalidInput

	// ErrMissingPayload is returned if a record has no dynamodb field. In a batch, this aborts
	// the processing of the whole batch.
	ErrMissingPayload = transform.ErrMissingPayload

	// ErrInvalidRecord is returned if a record in a batch is not valid JSON.
	ErrInvalidRecord = transform.ErrInvalidRecord

	// ErrMalformedValue is returned if a tagged attribute value could not be decoded.
	ErrMalformedValue = codec.ErrMalformedValue

	// ErrUnsupportedDiffMode is returned by diff implementations not supporting the diff mode.
	ErrUnsupportedDiffMode = diff.ErrUnsupportedMode
)

type Processor struct {
	service *service.Service
}

// New creates a Processor based on the provided config, which needs to be initially created
// with NewConfig() or NewConfigFromJSON().
func New(config *Config) (*Processor, error) {
	if config == nil || !config.initialized {
		return nil, ErrConfigNotInitialized
	}
	return &Processor{service: service.New(preProcessConfig(config))}, nil
}

// Transform transforms raw JSON input, being either a single change record (JSON object)
// or a batch of change records (JSON array). The returned Output has the same shape as the
// input, both as Go value and when marshalled to JSON.
func (p *Processor) Transform(ctx context.Context, data []byte) (*entity.Output, error) {
	return p.service.Transform(ctx, data)
}

// TransformRecord transforms a single change record (JSON object).
func (p *Processor) TransformRecord(ctx context.Context, record []byte) (*entity.TransformedRecord, error) {
	return p.service.TransformRecord(ctx, record)
}

// TransformRecords transforms a batch of change records. The output has the same length and
// order as the input. If any record fails, the error is returned without partial results.
func (p *Processor) TransformRecords(ctx context.Context, records [][]byte) ([]*entity.TransformedRecord, error) {
	return p.service.TransformRecords(ctx, records)
}

// TransformEvent transforms all records in a Lambda DynamoDB event, e.g. as received by
// a Lambda handler function registered with lambda.Start().
func (p *Processor) TransformEvent(ctx context.Context, event events.DynamoDBEvent) ([]*entity.TransformedRecord, error) {
	return p.service.TransformEventRecords(ctx, event.Records)
}

// Config returns a copy of the config used by the processor.
func (p *Processor) Config() *Config {
	spec := p.service.Spec()
	c := NewConfig()
	c.DiffMode = spec.DiffMode
	c.Decode = spec.Options
	return c
}

// Transform is a convenience function creating a Processor with the provided diff mode and
// decode options, and transforming the raw JSON input with it.
func Transform(ctx context.Context, data []byte, diffMode entity.DiffMode, opts entity.DecodeOptions) (*entity.Output, error) {
	c := NewConfig()
	c.DiffMode = diffMode
	c.Decode = opts
	p, err := New(c)
	if err != nil {
		return nil, err
	}
	return p.Transform(ctx, data)
}

func errWithDetails(err error, errDetails error) error {
	return fmt.Errorf("%w, details: %v", err, errDetails)
}
