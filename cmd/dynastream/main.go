package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := makeDynastreamCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func makeDynastreamCommand() *cobra.Command {
	config := defaultRunConfig()
	runCmdFunc := func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			config.inputFilePath = args[0]
		}
		return runTransform(cmd.Context(), config, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	cmd := &cobra.Command{
		Use:   "dynastream [inputFilePath] (flags)",
		Short: "dynastream transforms DynamoDB Streams change records into plain JSON records.",
		Long: `dynastream transforms DynamoDB Streams change records into plain JSON records, with the
tagged attribute values of Keys, NewImage and OldImage decoded, and optionally with a Diff
between OldImage and NewImage added.

The input is read from the file given as argument, or from stdin, and can be a single record,
a JSON array of records, or a Lambda DynamoDB event ({"Records": [...]}).

Typical usage:
    dynastream event.json --diff=updated
        Transform all records in event.json, adding the updated values as Diff.

    cat record.json | dynastream --wrap-sets --pretty
        Transform a single record read from stdin, keeping set attributes wrapped.
`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runCmdFunc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&config.diffMode, "diff", config.diffMode, "diff to add: added, deleted, updated, detailed, or any other name for a full diff; no diff if empty")
	cmd.Flags().BoolVar(&config.wrapSets, "wrap-sets", config.wrapSets, "keep set attributes wrapped instead of flattening them into arrays")
	cmd.Flags().BoolVar(&config.wrapNumbers, "wrap-numbers", config.wrapNumbers, "keep numbers in their exact string form, avoiding float precision loss")
	cmd.Flags().BoolVar(&config.convertEmptyValues, "convert-empty-values", config.convertEmptyValues, "decode empty strings and binaries as null")
	cmd.Flags().StringVar(&config.specFilePath, "config", config.specFilePath, "JSON config file, e.g. {\"diffMode\": \"updated\", \"options\": {\"wrapSets\": true}}; overrides the other flags")
	cmd.Flags().BoolVar(&config.pretty, "pretty", config.pretty, "indent the JSON output")
	return cmd
}
