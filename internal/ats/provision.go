package ats

import (
	"context"
	"fmt"
	"io"

	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/lark"
	"lark-ats/internal/common/logger"
)

// TableAPI is the part of the Lark client provisioning uses.
type TableAPI interface {
	BaseAppToken() (string, error)
	CreateTable(ctx context.Context, appToken, name string) (*lark.CreatedTable, error)
	CreateField(ctx context.Context, appToken, tableID string, field lark.TableField) (*lark.CreatedField, error)
}

type CreatedField struct {
	Name    string `json:"name"`
	FieldID string `json:"fieldId"`
}

type FailedField struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type ProvisionResult struct {
	TableID   string         `json:"tableId"`
	TableName string         `json:"tableName"`
	Created   []CreatedField `json:"created"`
	Failed    []FailedField  `json:"failed,omitempty"`
}

// Provisioner creates the ATS table and its columns. Progress lines are
// written to out for the operator running it.
type Provisioner struct {
	api    TableAPI
	logger logger.Logger
	out    io.Writer
	fields []FieldDefinition
}

func NewProvisioner(api TableAPI, log logger.Logger, out io.Writer) *Provisioner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if out == nil {
		out = io.Discard
	}
	return &Provisioner{api: api, logger: log, out: out, fields: Fields}
}

// Provision creates the table, then each column in schema order. A table
// failure aborts. A column failure is reported and the next column is
// still attempted.
func (p *Provisioner) Provision(ctx context.Context) (*ProvisionResult, error) {
	appToken, err := p.api.BaseAppToken()
	if err != nil {
		return nil, err
	}

	p.printf("🚀 Starting ATS table creation...\n")
	p.printf("📋 Base App Token: %s\n", appToken)
	p.printf("📊 Table Name: %s\n", TableName)
	p.printf("📝 Fields to create: %d\n\n", len(p.fields))

	p.printf("Step 1: Creating table...\n")
	table, err := p.api.CreateTable(ctx, appToken, TableName)
	if err != nil {
		p.logger.Error("Failed to create ATS table", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	p.printf("✅ Table created successfully! Table ID: %s\n\n", table.TableID)

	result := &ProvisionResult{
		TableID:   table.TableID,
		TableName: TableName,
		Created:   []CreatedField{},
	}

	p.printf("Step 2: Creating fields...\n")
	for _, def := range p.fields {
		p.printf("  Creating field: %s...\n", def.Name)

		field, err := p.api.CreateField(ctx, appToken, table.TableID, tableField(def))
		if err != nil {
			p.logger.Warn("Failed to create ATS field", map[string]interface{}{
				"field": def.Name,
				"error": err.Error(),
			})
			p.printf("  ⚠️  Warning: Failed to create field %s: %s\n", def.Name, remoteMessage(err))
			result.Failed = append(result.Failed, FailedField{Name: def.Name, Error: err.Error()})
			continue
		}

		p.printf("  ✅ Field created: %s (ID: %s)\n", def.Name, field.FieldID)
		result.Created = append(result.Created, CreatedField{Name: def.Name, FieldID: field.FieldID})
	}

	p.printf("\n🎉 ATS table creation completed!\n\n")
	p.printf("Summary:\n")
	p.printf("  - Table ID: %s\n", result.TableID)
	p.printf("  - Table Name: %s\n", result.TableName)
	p.printf("  - Fields Created: %d\n", len(result.Created))
	if len(result.Failed) > 0 {
		p.printf("  - Fields Failed: %d\n", len(result.Failed))
	}
	p.printf("\nNext steps:\n")
	p.printf("  1. Open Lark Base and verify the table\n")
	p.printf("  2. Configure view settings as needed\n")
	p.printf("  3. Set up automations if required\n")

	p.logger.Info("Provisioned ATS table", map[string]interface{}{
		"tableId": result.TableID,
		"created": len(result.Created),
		"failed":  len(result.Failed),
	})

	return result, nil
}

func (p *Provisioner) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

func tableField(def FieldDefinition) lark.TableField {
	field := lark.TableField{
		FieldName: def.Name,
		Type:      int(def.Type),
		Property:  def.Property,
	}
	if def.Description != "" {
		field.Description = &lark.FieldDescription{Text: def.Description}
	}
	return field
}

// remoteMessage prefers the message Lark sent over the wrapped error text.
func remoteMessage(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok && stdErr.Details != "" {
		return stdErr.Details
	}
	return err.Error()
}
