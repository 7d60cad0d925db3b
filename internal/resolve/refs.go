package resolve

import (
	"fmt"
	"strings"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/expr"
)

// References returns the accumulator keys an entry reads, in order of first
// use. Attribute and Translate entries read their source position; Computed
// entries read the fields named by their directive or expression.
//
// Numeric positions are reported as the column they select when cfg.Columns
// covers them.
func References(cfg ResolutionConfig, e dict.Entry) ([]string, error) {
	kind, ok := dict.ParseKind(string(e.Kind))
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformedEntry, e.Kind)
	}

	switch kind {
	case dict.KindAttribute, dict.KindTranslate:
		source, err := sourceColumn(cfg, e.Position)
		if err != nil {
			return nil, err
		}
		return []string{source}, nil
	}

	if _, ok := cfg.Computed[e.Name]; ok {
		return nil, nil
	}
	spec := strings.TrimSpace(e.Spec)
	switch {
	case strings.HasPrefix(spec, sumPrefix):
		return []string{strings.TrimSpace(strings.TrimPrefix(spec, sumPrefix))}, nil
	case strings.HasPrefix(spec, multiplyPrefix):
		fields, err := splitFields(strings.TrimPrefix(spec, multiplyPrefix))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedEntry, spec, err)
		}
		return fields, nil
	}

	prog, err := expr.Compile(spec, expr.WithFunctions(cfg.Functions))
	if err != nil {
		return nil, err
	}
	return prog.Vars(), nil
}
