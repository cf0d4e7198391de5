package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zpiroux/dynastream/entity"
	"github.com/zpiroux/dynastream/internal/pkg/codec"
	"github.com/zpiroux/dynastream/internal/pkg/diff"
)

const testEventDir = "../../../test/events/"

var printTestOutput bool

func TestTransformer(t *testing.T) {

	printTestOutput = false

	fileBytes, err := os.ReadFile(testEventDir + "modify_record.json")
	require.NoError(t, err)
	original := string(fileBytes)

	spec := &entity.Spec{DiffMode: entity.DiffUpdated}
	transformer := NewTransformer(spec, codec.NewDecoder(), diff.NewDiffer())

	output, err := transformer.Transform(context.Background(), fileBytes)
	require.NoError(t, err)
	require.NotNil(t, output)
	tPrintf("Transformation output: %s\n", output)

	assert.Equal(t, entity.Item{"id": "1"}, output.Payload.Keys)
	assert.Equal(t, entity.Item{"id": "1", "qty": float64(5)}, output.Payload.OldImage)
	assert.Equal(t, entity.Item{"id": "1", "qty": float64(7)}, output.Payload.NewImage)
	assert.Equal(t, map[string]any{"qty": float64(7)}, output.Payload.Diff)
	assert.Equal(t, original, string(fileBytes))

	// Envelope is kept, the payload only holds the produced fields
	out, err := json.Marshal(output)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(out, &record))
	assert.Equal(t, "MODIFY", record["eventName"])
	assert.Equal(t, "eu-north-1", record["awsRegion"])
	assert.Equal(t, map[string]any{
		"Keys":     map[string]any{"id": "1"},
		"OldImage": map[string]any{"id": "1", "qty": float64(5)},
		"NewImage": map[string]any{"id": "1", "qty": float64(7)},
		"Diff":     map[string]any{"qty": float64(7)},
	}, record["dynamodb"])
}

func TestTransformer_NoDiffMode(t *testing.T) {

	fileBytes, err := os.ReadFile(testEventDir + "modify_record.json")
	require.NoError(t, err)

	transformer := NewTransformer(&entity.Spec{}, codec.NewDecoder(), diff.NewDiffer())
	output, err := transformer.Transform(context.Background(), fileBytes)
	require.NoError(t, err)
	assert.Equal(t, entity.Item{"id": "1"}, output.Payload.Keys)
	assert.Nil(t, output.Payload.Diff)
}

func TestTransformer_DiffRequiresBothImages(t *testing.T) {

	spec := &entity.Spec{DiffMode: entity.DiffUpdated}
	transformer := NewTransformer(spec, codec.NewDecoder(), diff.NewDiffer())

	for _, file := range []string{"insert_record.json", "remove_record.json"} {
		fileBytes, err := os.ReadFile(testEventDir + file)
		require.NoError(t, err)
		output, err := transformer.Transform(context.Background(), fileBytes)
		require.NoError(t, err)
		assert.Nil(t, output.Payload.Diff, file)
		assert.NotNil(t, output.Payload.Keys, file)

		out, err := json.Marshal(output)
		require.NoError(t, err)
		var record map[string]any
		require.NoError(t, json.Unmarshal(out, &record))
		payload, ok := record["dynamodb"].(map[string]any)
		require.True(t, ok, file)
		assert.NotContains(t, payload, "Diff", file)
		assert.NotContains(t, payload, "SequenceNumber", file)
	}

	output, err := transformer.Transform(context.Background(), []byte(`{"dynamodb":{"NewImage":{"a":{"S":"x"}}}}`))
	require.NoError(t, err)
	assert.Nil(t, output.Payload.Diff)
	assert.Nil(t, output.Payload.Keys)
	assert.Nil(t, output.Payload.OldImage)
	assert.Equal(t, entity.Item{"a": "x"}, output.Payload.NewImage)
}

func TestTransformer_SetHandling(t *testing.T) {

	fileBytes, err := os.ReadFile(testEventDir + "insert_record.json")
	require.NoError(t, err)

	transformer := NewTransformer(&entity.Spec{}, codec.NewDecoder(), diff.NewDiffer())
	output, err := transformer.Transform(context.Background(), fileBytes)
	require.NoError(t, err)
	assert.Equal(t, []any{"new", "sale"}, output.Payload.NewImage["tags"])

	spec := &entity.Spec{}
	spec.Options.WrapSets = true
	transformer = NewTransformer(spec, codec.NewDecoder(), diff.NewDiffer())
	output, err = transformer.Transform(context.Background(), fileBytes)
	require.NoError(t, err)
	tags, ok := output.Payload.NewImage["tags"].(*entity.Set)
	require.True(t, ok)
	assert.Equal(t, []any{"new", "sale"}, tags.Values)
}

func TestTransformer_MissingPayload(t *testing.T) {

	transformer := NewTransformer(&entity.Spec{DiffMode: entity.DiffFull}, codec.NewDecoder(), diff.NewDiffer())

	for _, record := range []string{
		`{"eventName":"MODIFY"}`,
		`{"dynamodb":null}`,
		`{"dynamodb":false}`,
		`{"dynamodb":""}`,
		`5`,
	} {
		_, err := transformer.Transform(context.Background(), []byte(record))
		assert.Equal(t, ErrMissingPayload, err, record)
	}

	_, err := transformer.Transform(context.Background(), []byte(`{"dynamodb":`))
	assert.Equal(t, ErrInvalidRecord, err)
}

func TestTransformer_EmptyPayload(t *testing.T) {

	transformer := NewTransformer(&entity.Spec{}, codec.NewDecoder(), diff.NewDiffer())

	output, err := transformer.Transform(context.Background(), []byte(`{"id":1,"dynamodb":{"SequenceNumber":"1","Keys":null}}`))
	require.NoError(t, err)
	out, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"dynamodb":{}}`, string(out))

	// Present but empty snapshots are kept
	output, err = transformer.Transform(context.Background(), []byte(`{"dynamodb":{"Keys":{}}}`))
	require.NoError(t, err)
	out, err = json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dynamodb":{"Keys":{}}}`, string(out))
}

func TestTransformer_ErrorPropagation(t *testing.T) {

	decodeErr := errors.New("decode failed")
	diffErr := errors.New("diff failed")

	record := []byte(`{"dynamodb":{"Keys":{"id":{"S":"1"}},"OldImage":{"id":{"S":"1"}},"NewImage":{"id":{"S":"1"}}}}`)

	transformer := NewTransformer(&entity.Spec{}, &fakeDecoder{err: decodeErr}, &fakeDiffer{})
	_, err := transformer.Transform(context.Background(), record)
	assert.Equal(t, decodeErr, err)

	transformer = NewTransformer(&entity.Spec{DiffMode: entity.DiffAdded}, &fakeDecoder{}, &fakeDiffer{err: diffErr})
	_, err = transformer.Transform(context.Background(), record)
	assert.Equal(t, diffErr, err)

	// Malformed tagged values from the real decoder
	transformer = NewTransformer(&entity.Spec{}, codec.NewDecoder(), diff.NewDiffer())
	_, err = transformer.Transform(context.Background(), []byte(`{"dynamodb":{"Keys":{"id":{"Q":"1"}}}}`))
	assert.True(t, errors.Is(err, codec.ErrMalformedValue))
}

func TestTransformer_WithFakes(t *testing.T) {

	decoder := &fakeDecoder{}
	differ := &fakeDiffer{}
	spec := &entity.Spec{DiffMode: entity.DiffDetailed}
	spec.Options.WrapNumbers = true
	transformer := NewTransformer(spec, decoder, differ)

	record := []byte(`{"dynamodb":{"Keys":{"k":{"S":"1"}},"OldImage":{"o":{"S":"1"}},"NewImage":{"n":{"S":"1"}}}}`)
	output, err := transformer.Transform(context.Background(), record)
	require.NoError(t, err)

	assert.Equal(t, 3, decoder.calls)
	assert.True(t, decoder.lastOpts.WrapNumbers)
	assert.Equal(t, entity.DiffDetailed, differ.lastMode)
	assert.Equal(t, `{"o":{"S":"1"}}`, differ.lastOld["raw"])
	assert.Equal(t, `{"n":{"S":"1"}}`, differ.lastNew["raw"])
	assert.Equal(t, "fake diff", output.Payload.Diff)

	// Absent fields never reach the decoder
	decoder.calls = 0
	differ.lastMode = entity.DiffNone
	_, err = transformer.Transform(context.Background(), []byte(`{"dynamodb":{"Keys":{"k":{"S":"1"}},"NewImage":0}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, decoder.calls)
	assert.Equal(t, entity.DiffNone, differ.lastMode)
}

type fakeDecoder struct {
	calls    int
	lastOpts entity.DecodeOptions
	err      error
}

func (d *fakeDecoder) Decode(tagged []byte, opts entity.DecodeOptions) (entity.Item, error) {
	d.calls++
	d.lastOpts = opts
	if d.err != nil {
		return nil, d.err
	}
	return entity.Item{"raw": string(tagged)}, nil
}

type fakeDiffer struct {
	lastOld  entity.Item
	lastNew  entity.Item
	lastMode entity.DiffMode
	err      error
}

func (d *fakeDiffer) Diff(oldItem, newItem entity.Item, mode entity.DiffMode) (any, error) {
	d.lastOld, d.lastNew, d.lastMode = oldItem, newItem, mode
	if d.err != nil {
		return nil, d.err
	}
	return "fake diff", nil
}

func tPrintf(format string, a ...any) {
	if printTestOutput {
		fmt.Printf(format, a...)
	}
}
