package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chaterm/chaterm/errors"
)

// CalculateTool evaluates arithmetic expressions with the sandboxed
// evaluator in eval.go.
type CalculateTool struct{}

func (t *CalculateTool) Name() string { return "calculate" }

func (t *CalculateTool) Description() string {
	return "Evaluates an arithmetic expression. Supports + - * / ^, parentheses, " +
		"the functions sqrt, pow, sin, cos, tan, log, abs and the constants pi and e. " +
		"Args: expression (string)."
}

func (t *CalculateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "The arithmetic expression to evaluate, e.g. \"sqrt(2) * 10\".",
			},
		},
		"required": []string{"expression"},
	}
}

func (t *CalculateTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	expr, ok := args["expression"].(string)
	if !ok || expr == "" {
		return "", errors.New("missing or invalid 'expression' argument")
	}
	v, err := evaluate(expr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", expr, strconv.FormatFloat(v, 'g', -1, 64)), nil
}
