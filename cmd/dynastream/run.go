package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/zpiroux/dynastream"
	"github.com/zpiroux/dynastream/entity"
)

type runConfig struct {
	inputFilePath      string
	specFilePath       string
	diffMode           string
	wrapSets           bool
	wrapNumbers        bool
	convertEmptyValues bool
	pretty             bool
}

func defaultRunConfig() runConfig {
	return runConfig{}
}

func (c runConfig) processorConfig() (*dynastream.Config, error) {
	if c.specFilePath != "" {
		specData, err := os.ReadFile(c.specFilePath)
		if err != nil {
			return nil, err
		}
		return dynastream.NewConfigFromJSON(specData)
	}

	config := dynastream.NewConfig()
	config.DiffMode = entity.ParseDiffMode(c.diffMode)
	config.Decode = entity.DecodeOptions{
		WrapSets:           c.wrapSets,
		WrapNumbers:        c.wrapNumbers,
		ConvertEmptyValues: c.convertEmptyValues,
	}
	return config, nil
}

func runTransform(ctx context.Context, c runConfig, stdin io.Reader, stdout io.Writer) error {

	config, err := c.processorConfig()
	if err != nil {
		return err
	}
	p, err := dynastream.New(config)
	if err != nil {
		return err
	}

	input, err := readInput(c.inputFilePath, stdin)
	if err != nil {
		return err
	}

	// Lambda events hold the batch of records in the Records field
	if records := gjson.GetBytes(input, "Records"); records.IsArray() && !gjson.GetBytes(input, entity.PayloadField).Exists() {
		input = []byte(records.Raw)
	}

	output, err := p.Transform(ctx, input)
	if err != nil {
		return err
	}

	var out []byte
	if c.pretty {
		out, err = json.MarshalIndent(output, "", "  ")
	} else {
		out, err = json.Marshal(output)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
