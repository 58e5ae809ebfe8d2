// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package config

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	yamlv3 "gopkg.in/yaml.v3"
)

const schemaURL = "config.schema.json"

// durationPattern matches the strings accepted by time.ParseDuration.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

var (
	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
)

// Schema returns the JSON Schema of the config file.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{Type: "string", Pattern: durationPattern}
			}
			return nil
		},
	}
	schema := r.Reflect(&Config{})
	schema.Title = "Warden configuration"
	schema.Description = "Schema for warden config.yaml files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

func compiledSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := Schema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "add schema resource").Wrap(err)
			return
		}
		compiled, err = c.Compile(schemaURL)
		if err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA_FAILED").With("operation", "compile schema").Wrap(err)
		}
	})
	return compiled, compileErr
}

// ValidateDocument checks YAML config file contents against Schema.
// Unknown keys, misspelled enums and malformed durations are rejected.
// An empty document is valid.
func ValidateDocument(data []byte) error {
	var doc any
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return oops.Code("CONFIG_SCHEMA_INVALID").With("operation", "parse yaml").Wrap(err)
	}
	if doc == nil {
		return nil
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("CONFIG_SCHEMA_INVALID").Wrap(err)
	}
	return nil
}
