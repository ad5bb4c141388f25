package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lark-ats/internal/ats"
	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/validation"
)

func newRecordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage ATS records",
	}

	cmd.AddCommand(newRecordsListCmd(a))
	cmd.AddCommand(newRecordsGetCmd(a))
	cmd.AddCommand(newRecordsCreateCmd(a))
	cmd.AddCommand(newRecordsUpdateCmd(a))
	cmd.AddCommand(newRecordsDeleteCmd(a))
	return cmd
}

func newRecordsListCmd(a *app) *cobra.Command {
	var opts ats.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := a.operations()
			if err != nil {
				return err
			}

			if opts.PageSize == 0 {
				opts.PageSize = a.cfg.Lark.PageSize
			}

			page, err := ops.List(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Records per page (default from config, 100)")
	cmd.Flags().StringVar(&opts.PageToken, "page-token", "", "Continuation token from a previous page")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", `Filter expression, e.g. CurrentValue.[ヨミ]="A（80%）"`)
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, `Sort keys, e.g. "入社日 DESC"`)
	return cmd
}

func newRecordsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <record-id>",
		Short: "Print the fields of one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.operations()
			if err != nil {
				return err
			}

			fields, err := ops.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fields)
		},
	}
}

func newRecordsCreateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create --file records.json",
		Short: "Create one record (JSON object) or a batch (JSON array)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			schema := ats.RecordJSONSchema()
			if isArray(data) {
				schema = ats.RecordBatchJSONSchema()
			}
			if err := validateInput(schema, data); err != nil {
				return err
			}

			ops, err := a.operations()
			if err != nil {
				return err
			}

			if isArray(data) {
				var records []ats.ATSRecord
				if err := json.Unmarshal(data, &records); err != nil {
					return inputError(err)
				}
				ids, err := ops.BatchCreate(cmd.Context(), records)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"record_ids": ids})
			}

			var record ats.ATSRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return inputError(err)
			}
			id, err := ops.Create(cmd.Context(), record)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"record_id": id})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON file keyed by field name ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRecordsUpdateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <record-id> --file fields.json",
		Short: "Update only the fields present in the JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			if err := validateInput(ats.RecordJSONSchema(), data); err != nil {
				return err
			}

			var record ats.ATSRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return inputError(err)
			}

			ops, err := a.operations()
			if err != nil {
				return err
			}
			if err := ops.Update(cmd.Context(), args[0], record); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"record_id": args[0], "updated": true})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON file keyed by field name ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRecordsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>...",
		Short: "Delete one record, or several in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.operations()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				err = ops.Delete(cmd.Context(), args[0])
			} else {
				err = ops.BatchDelete(cmd.Context(), args)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"deleted": args})
		},
	}
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

func isArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// validateInput reports every shape problem in the document at once.
func validateInput(schema map[string]interface{}, data []byte) error {
	result, err := validation.ValidateDocument(schema, data)
	if err != nil {
		return errors.NewInvalidInputError("Invalid record JSON", err.Error())
	}
	return result.Err("Invalid record JSON")
}

func inputError(err error) error {
	if _, ok := errors.AsStandardError(err); ok {
		return err
	}
	return errors.NewInvalidInputError("Invalid record JSON", err.Error())
}
