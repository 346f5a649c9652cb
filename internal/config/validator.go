package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/opmodel/graphpack/internal/chunk"
	"github.com/opmodel/graphpack/internal/transform/steps"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Fields returns the distinct fields that failed, in order.
func (e ValidationErrors) Fields() []string {
	var fields []string
	for _, err := range e {
		if !slices.Contains(fields, err.Field) {
			fields = append(fields, err.Field)
		}
	}
	return fields
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(configSchemaCUE, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no #Config definition")
	}

	return &Validator{
		ctx:    ctx,
		schema: def,
	}, nil
}

// Validate validates the given configuration. Schema violations are
// reported first, then semantic checks the schema cannot express.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, v.validateSchema(cfg)...)
	errs = append(errs, validateEntries(cfg)...)
	errs = append(errs, validateRules(cfg)...)
	errs = append(errs, validateChunks(cfg)...)
	errs = append(errs, validateMisc(cfg)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ValidateFile validates a configuration file at the given path.
func (v *Validator) ValidateFile(path string) error {
	loader := NewLoader()
	cfg, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	return v.Validate(cfg)
}

func (v *Validator) validateSchema(cfg *Config) ValidationErrors {
	value := v.ctx.Encode(cfg)
	if value.Err() != nil {
		return ValidationErrors{{Field: "config", Message: value.Err().Error()}}
	}

	err := v.schema.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "config"
		}
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}
	return errs
}

func validateEntries(cfg *Config) ValidationErrors {
	if len(cfg.Entry) == 0 {
		return ValidationErrors{{Field: "entry", Message: "at least one entry is required"}}
	}
	var errs ValidationErrors
	for name, p := range cfg.Entry {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, ValidationError{
				Field:   "entry." + name,
				Message: "must not be empty",
			})
		}
	}
	return errs
}

func validateRules(cfg *Config) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool)

	for i, rule := range cfg.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if rule.Name != "" {
			if seen[rule.Name] {
				errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate rule %q", rule.Name)})
			}
			seen[rule.Name] = true
		}
		if rule.Test != "" {
			if _, err := regexp.Compile(rule.Test); err != nil {
				errs = append(errs, ValidationError{Field: field + ".test", Message: err.Error()})
			}
		}
		if rule.Exclude != "" {
			if _, err := regexp.Compile(rule.Exclude); err != nil {
				errs = append(errs, ValidationError{Field: field + ".exclude", Message: err.Error()})
			}
		}
		if rule.Enforce != "" && rule.Enforce != EnforcePre {
			errs = append(errs, ValidationError{Field: field + ".enforce", Message: fmt.Sprintf("must be %q", EnforcePre)})
		}
		if len(rule.Use) == 0 {
			errs = append(errs, ValidationError{Field: field + ".use", Message: "at least one step is required"})
		}
		for j, name := range rule.Use {
			if !steps.Known(name) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.use[%d]", field, j),
					Message: fmt.Sprintf("unknown step %q (available: %s)", name, strings.Join(steps.Names(), ", ")),
				})
			}
			if name == "define" && len(cfg.Define) == 0 {
				errs = append(errs, ValidationError{Field: "define", Message: "required by the define step"})
			}
			if name == "banner" && rule.Options.Banner == "" {
				errs = append(errs, ValidationError{Field: field + ".options.banner", Message: "required by the banner step"})
			}
		}
		if rule.Options.Target != "" && !knownTarget(rule.Options.Target) {
			errs = append(errs, ValidationError{Field: field + ".options.target", Message: targetMessage(rule.Options.Target)})
		}
	}
	return errs
}

func validateChunks(cfg *Config) ValidationErrors {
	var errs ValidationErrors
	for i, split := range cfg.Chunks.Split {
		if _, err := (chunk.Rule{Name: split.Name, Test: split.Test}).Compile(); err != nil {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("chunks.split[%d]", i), Message: err.Error()})
		}
	}

	filename := cfg.Output.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	multiple := len(cfg.Chunks.Split) > 0 ||
		(cfg.Chunks.Runtime != "" && cfg.Chunks.Runtime != cfg.Chunks.Default)
	if multiple && !strings.Contains(filename, "[name]") && !strings.Contains(filename, "[hash]") {
		errs = append(errs, ValidationError{
			Field:   "output.filename",
			Message: "must contain [name] or [hash] when more than one chunk is emitted",
		})
	}
	return errs
}

func validateMisc(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if cfg.Target != "" && !knownTarget(cfg.Target) {
		errs = append(errs, ValidationError{Field: "target", Message: targetMessage(cfg.Target)})
	}
	if cfg.Mode != "" {
		if _, err := ParseMode(cfg.Mode); err != nil {
			errs = append(errs, ValidationError{Field: "mode", Message: err.Error()})
		}
	}

	provided := make(map[string]bool)
	for i, p := range cfg.Provide {
		if provided[p.Name] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("provide[%d].name", i), Message: fmt.Sprintf("duplicate global %q", p.Name)})
		}
		provided[p.Name] = true
	}

	if cfg.Publish.Endpoint != "" && cfg.Publish.Bucket == "" {
		errs = append(errs, ValidationError{Field: "publish.bucket", Message: "required when publish.endpoint is set"})
	}
	return errs
}

func knownTarget(t string) bool {
	return slices.Contains(steps.Targets(), strings.ToLower(t))
}

func targetMessage(t string) string {
	return fmt.Sprintf("unknown target %q (valid: %s)", t, strings.Join(steps.Targets(), ", "))
}
