package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pickdb/internal/compiler"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the tables compiled from a schema file or directory.
type LoadResult struct {
	Schema    *compiler.Schema
	CUEValue  cue.Value
	FileCount int
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads CUE schema files and compiles every table under "table".
// path is a single .cue file or a directory of them.
//
// A nil result means nothing could be compiled at all. Otherwise the result
// holds the tables that compiled and errs lists the ones that did not (only
// the first one in LoadModeFailFast).
func LoadSchemas(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema path: %v", err)}}
	}

	dir, args := path, []string{"."}
	files := []string{path}
	if info.IsDir() {
		files, err = FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}}
		}
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		Schema:    &compiler.Schema{},
		CUEValue:  value,
		FileCount: len(files),
	}

	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoTables, Message: "no tables found in schema"}}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating tables: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		t, compileErr := compiler.CompileTable(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "table."+iter.Selector().String()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Schema.Tables = append(result.Schema.Tables, *t)
	}

	if len(result.Schema.Tables) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoTables, Message: "no tables found in schema"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants shared by all CLI commands. Schema validation codes
// (E101-E116) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNoTables    = "E008" // Schema declares no tables

	// Runtime errors
	ErrCodeValidation     = "E201" // Facade rejected the input
	ErrCodeBackend        = "E202" // Database failure
	ErrCodeRecordNotFound = "E203" // No record or field with that key
	ErrCodeBadInput       = "E204" // Malformed command-line values
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "table":
		return ErrCodeNoTables
	case field == "columns" || strings.HasPrefix(field, "columns."):
		return compiler.ErrInvalidColumn
	case field == "position":
		return compiler.ErrInvalidPosition
	case strings.HasSuffix(field, ".kind") || strings.HasPrefix(field, "dictionary"):
		return compiler.ErrInvalidEntry
	case field == "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
