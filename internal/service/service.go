package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/teltech/logger"
	"github.com/tidwall/gjson"
	"github.com/zpiroux/dynastream/entity"
	"github.com/zpiroux/dynastream/internal/pkg/codec"
	"github.com/zpiroux/dynastream/internal/pkg/diff"
	"github.com/zpiroux/dynastream/internal/pkg/istream"
	"github.com/zpiroux/dynastream/internal/pkg/transform"
)

var log *logger.Log

func init() {
	log = logger.New()
}

var ErrInvalidInput = errors.New("input must be array or object")

// Service is responsible for creating and injecting concrete implementations of the various
// parts of the record processing pipeline, and for dispatching records to the transformer.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	config      Config
	transformer istream.Transformer
}

type Config struct {
	Spec entity.Spec

	// Decoder and Differ are optional, the default implementations are used if nil.
	Decoder istream.Decoder
	Differ  istream.Differ
}

func New(cfg Config) *Service {
	s := Service{config: cfg}

	if s.config.Decoder == nil {
		s.config.Decoder = codec.NewDecoder()
	}
	if s.config.Differ == nil {
		s.config.Differ = diff.NewDiffer()
	}

	spec := s.config.Spec
	s.transformer = transform.NewTransformer(&spec, s.config.Decoder, s.config.Differ)
	return &s
}

func (s *Service) Spec() entity.Spec {
	return s.config.Spec
}

// Transform dispatches raw JSON input on its shape. A JSON array is transformed as a batch of
// records, a JSON object as a single record. Any other input fails with ErrInvalidInput.
func (s *Service) Transform(ctx context.Context, data []byte) (*entity.Output, error) {

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w, details: input is not valid JSON", ErrInvalidInput)
	}

	input := gjson.ParseBytes(data)
	switch {
	case input.IsArray():
		var records [][]byte
		input.ForEach(func(_, value gjson.Result) bool {
			records = append(records, []byte(value.Raw))
			return true
		})
		batch, err := s.TransformRecords(ctx, records)
		if err != nil {
			return nil, err
		}
		return &entity.Output{Batch: batch}, nil
	case input.IsObject():
		single, err := s.transformer.Transform(ctx, data)
		if err != nil {
			return nil, err
		}
		return &entity.Output{Single: single}, nil
	default:
		return nil, fmt.Errorf("%w, details: got JSON %s", ErrInvalidInput, input.Type)
	}
}

// TransformRecord transforms a single record, which needs to be a JSON object.
func (s *Service) TransformRecord(ctx context.Context, record []byte) (*entity.TransformedRecord, error) {
	if !gjson.ValidBytes(record) || !gjson.ParseBytes(record).IsObject() {
		return nil, ErrInvalidInput
	}
	return s.transformer.Transform(ctx, record)
}

// TransformRecords transforms each record in order. Processing stops at the first failing
// record, and no partial results are returned.
func (s *Service) TransformRecords(ctx context.Context, records [][]byte) ([]*entity.TransformedRecord, error) {

	transformed := make([]*entity.TransformedRecord, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.transformer.Transform(ctx, record)
		if err != nil {
			log.Warnf("batch aborted, record %d of %d could not be transformed, err: %v", i+1, len(records), err)
			return nil, err
		}
		transformed = append(transformed, result)
	}

	log.Debugf("transformed batch of %d records", len(transformed))
	return transformed, nil
}

// TransformEventRecords transforms the records of a Lambda DynamoDB event.
func (s *Service) TransformEventRecords(ctx context.Context, records []events.DynamoDBEventRecord) ([]*entity.TransformedRecord, error) {

	raw := make([][]byte, 0, len(records))
	for i, record := range records {
		b, err := marshalEventRecord(record)
		if err != nil {
			log.Warnf("batch aborted, event record %d of %d could not be marshalled, err: %v", i+1, len(records), err)
			return nil, err
		}
		raw = append(raw, b)
	}
	return s.TransformRecords(ctx, raw)
}

// marshalEventRecord turns marshalling panics from attribute values not created by
// unmarshalling (e.g. zero values) into ErrMalformedValue errors.
func marshalEventRecord(record events.DynamoDBEventRecord) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %v", codec.ErrMalformedValue, r)
		}
	}()
	b, err = json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrMalformedValue, err)
	}
	return b, nil
}
