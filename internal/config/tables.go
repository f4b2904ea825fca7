package config

import (
	"fmt"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/obfuscation"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

// Tables are the business tables that change without a release: reason codes per
// biller and the redaction field list.
type Tables struct {
	Redaction RedactionTable         `koanf:"redaction"`
	Billers   map[string]BillerTable `koanf:"billers"`
}

type RedactionTable struct {
	// Fields are redacted in addition to obfuscation.DefaultFields.
	Fields []string `koanf:"fields"`
}

type BillerTable struct {
	FreeSaleAmount string                         `koanf:"free_sale_amount"`
	ReasonCodes    reconciliation.ReasonCodeTable `koanf:"reason_codes"`
}

// LoadTables reads path when it is set. Without a file the built-in tables apply.
func LoadTables(path string) (*Tables, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"redaction.fields": []string{},
	}, "."), nil); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load tables file %s: %w", path, err)
		}
	}

	tables := &Tables{}
	if err := k.Unmarshal("", tables); err != nil {
		return nil, fmt.Errorf("unmarshal tables: %w", err)
	}
	return tables, nil
}

// Policy returns the redaction policy: the default fields plus the configured ones.
func (t *Tables) Policy() *obfuscation.Policy {
	fields := append([]string{}, obfuscation.DefaultFields...)
	return obfuscation.NewPolicy(append(fields, t.Redaction.Fields...))
}

// Apply overrides the reason codes of registry. Unknown billers are an error so a typo
// in the file does not go unnoticed.
func (t *Tables) Apply(registry *reconciliation.Registry) error {
	for biller, table := range t.Billers {
		if err := registry.Override(biller, table.ReasonCodes, table.FreeSaleAmount); err != nil {
			return err
		}
	}
	return nil
}
