package builtin

import (
	"context"
	"errors"
	"math"

	"agentplan/internal/tool"
)

// ErrDivideByZero is returned by divide when the divisor is zero
var ErrDivideByZero = errors.New("cannot divide by zero")

var pair = []tool.Param{
	{Name: "a", Description: "first number"},
	{Name: "b", Description: "second number"},
}

// binary wraps a two-number operation as a tool
func binary(name, description string, op func(a, b float64) (float64, error)) tool.Tool {
	return tool.NewFunc(name, description, pair, func(ctx context.Context, args []any) (any, error) {
		a, err := tool.Number(args, 0)
		if err != nil {
			return nil, err
		}
		b, err := tool.Number(args, 1)
		if err != nil {
			return nil, err
		}
		r, err := op(a, b)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// MathTools returns add, subtract, multiply, divide and power
func MathTools() []tool.Tool {
	return []tool.Tool{
		binary("add", "Adds two numbers and returns the result. Example: add(3, 5) returns 8.",
			func(a, b float64) (float64, error) { return a + b, nil }),
		binary("subtract", "Subtracts the second number from the first and returns the result.",
			func(a, b float64) (float64, error) { return a - b, nil }),
		binary("multiply", "Multiplies two numbers and returns the result.",
			func(a, b float64) (float64, error) { return a * b, nil }),
		binary("divide", "Divides the first number by the second. Fails on division by zero.",
			func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, ErrDivideByZero
				}
				return a / b, nil
			}),
		binary("power", "Raises the first number to the power of the second and returns the result.",
			func(a, b float64) (float64, error) {
				r := math.Pow(a, b)
				if math.IsNaN(r) || math.IsInf(r, 0) {
					return 0, errors.New("power result is not a finite number")
				}
				return r, nil
			}),
	}
}
