package hcl_adapter

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// newEvalContext exposes the process environment as `env` and a small set of
// string and number functions to configuration expressions.
func newEvalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	env := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		env = cty.MapVal(vars)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
		Functions: map[string]function.Function{
			"lower":  stdlib.LowerFunc,
			"upper":  stdlib.UpperFunc,
			"format": stdlib.FormatFunc,
			"concat": stdlib.ConcatFunc,
			"min":    stdlib.MinFunc,
			"max":    stdlib.MaxFunc,
		},
	}
}

func processEnv() []string { return os.Environ() }
