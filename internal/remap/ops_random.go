package remap

import (
	"math"
	"math/rand/v2"
	"strings"
)

func randomOperators() []Definition {
	return []Definition{
		{Name: "random.choice", Family: "random", Description: "Pick a random element of the input list", Run: opRandomChoice},
		{Name: "random.integer", Family: "random", Description: "Random integer between two bounds", Run: opRandomInteger, Nested: nestedList},
		{Name: "random.float", Family: "random", Description: "Random float between two bounds", Run: opRandomFloat, Nested: nestedList},
		{Name: "random.string", Family: "random", Description: "Random string from a set of characters", Run: opRandomString},
	}
}

func opRandomChoice(_, input any, _ *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return input, nil
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[rand.IntN(len(items))], nil
}

// bounds evaluates two operands in any order and returns them as min, max.
func bounds(arg, input any, ctx *Context) (lo, hi float64, ok bool, err error) {
	a, b, err := evaluatePair(arg, input, ctx)
	if err != nil {
		return 0, 0, false, err
	}
	x, okA := toNumber(a)
	y, okB := toNumber(b)
	if !okA || !okB {
		return 0, 0, false, nil
	}
	return math.Min(x, y), math.Max(x, y), true, nil
}

func opRandomInteger(arg, input any, ctx *Context) (any, error) {
	lo, hi, ok, err := bounds(arg, input, ctx)
	if err != nil || !ok {
		return input, err
	}
	return math.Floor(rand.Float64()*(hi-lo) + lo), nil
}

func opRandomFloat(arg, input any, ctx *Context) (any, error) {
	lo, hi, ok, err := bounds(arg, input, ctx)
	if err != nil || !ok {
		return input, err
	}
	return rand.Float64()*(hi-lo) + lo, nil
}

// opRandomString draws length+1 characters: the loop bound includes length.
func opRandomString(arg, _ any, _ *Context) (any, error) {
	m, _ := arg.(map[string]any)
	choice, _ := m["choice"].(string)
	length, ok := toInt(m["length"])
	if !ok || length < 0 || choice == "" {
		return "", nil
	}

	seen := make(map[rune]struct{})
	var chars []rune
	for _, r := range choice {
		if _, dup := seen[r]; !dup {
			seen[r] = struct{}{}
			chars = append(chars, r)
		}
	}

	var b strings.Builder
	for i := 0; i <= length; i++ {
		b.WriteRune(chars[rand.IntN(len(chars))])
	}
	return b.String(), nil
}
