// Package config loads namereg configuration files.
//
// Configuration is written in CUE and checked against an embedded schema
// before it is decoded, so a file that loads is complete and within range.
//
//	registry: {
//		unit_price: {denom: "ujuno", amount: 1000000}
//		fee_recipient: "juno1..."
//		max_name_len:  64
//	}
//	address_prefixes: ["juno"]
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/registry"
)

//go:embed schema.cue
var schemaSrc string

// File is a decoded configuration file.
type File struct {
	// Registry is the config written by Init.
	Registry ir.Config

	// AddressPrefixes restricts target addresses to these bech32 prefixes.
	// Empty accepts any prefix.
	AddressPrefixes []string

	// Limits overrides registry.DefaultLimits when non-nil.
	Limits *registry.Limits

	// Renderers is the path of a renderer table, relative paths resolved
	// against the working directory.
	Renderers string
}

type fileJSON struct {
	Registry struct {
		UnitPrice struct {
			Denom  string `json:"denom"`
			Amount uint64 `json:"amount"`
		} `json:"unit_price"`
		FeeRecipient string `json:"fee_recipient"`
		MaxNameLen   int    `json:"max_name_len"`
	} `json:"registry"`
	AddressPrefixes []string `json:"address_prefixes"`
	Limits          *struct {
		Title         int `json:"title"`
		Description   int `json:"description"`
		Keywords      int `json:"keywords"`
		KeywordLength int `json:"keyword_length"`
	} `json:"limits"`
	Renderers string `json:"renderers"`
}

// Error is a configuration load or validation failure.
type Error struct {
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse validates CUE source against the schema and decodes it. filename
// is used in error messages only.
func Parse(filename string, src []byte) (*File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &Error{Path: filename, Message: cueerrors.Details(err, nil)}
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{Path: filename, Message: cueerrors.Details(err, nil)}
	}

	var raw fileJSON
	if err := unified.Decode(&raw); err != nil {
		return nil, &Error{Path: filename, Message: fmt.Sprintf("decode: %v", err)}
	}

	f := &File{
		Registry: ir.Config{
			UnitPrice: ir.Coin{
				Denom:  raw.Registry.UnitPrice.Denom,
				Amount: raw.Registry.UnitPrice.Amount,
			},
			FeeRecipient: raw.Registry.FeeRecipient,
			MaxNameLen:   raw.Registry.MaxNameLen,
		},
		AddressPrefixes: raw.AddressPrefixes,
		Renderers:       raw.Renderers,
	}
	if raw.Limits != nil {
		f.Limits = &registry.Limits{
			MaxTitle:       raw.Limits.Title,
			MaxDescription: raw.Limits.Description,
			MaxKeywords:    raw.Limits.Keywords,
			MaxKeywordLen:  raw.Limits.KeywordLength,
		}
	}
	return f, nil
}
