package compute

import (
	"math/big"
	"strconv"
	"strings"

	"kuliahbot/app/model"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/oops"
)

// Letter grade thresholds, checked from the top.
var letterBands = []struct {
	min    int
	letter string
}{
	{85, "A"},
	{75, "B"},
	{65, "C"},
	{50, "D"},
}

// ParseNumbers reads whitespace separated integers. Any malformed token
// rejects the whole input.
func ParseNumbers(text string) ([]int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, oops.In("compute").Code("malformed_numbers").Wrap(model.ErrMalformedNumbers)
	}

	result := make([]int, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, oops.
				In("compute").
				Code("malformed_numbers").
				With("token", field).
				Wrap(model.ErrMalformedNumbers)
		}
		result = append(result, value)
	}

	return result, nil
}

// ParseGrade reads exactly one integer.
func ParseGrade(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) != 1 {
		return 0, oops.In("compute").Code("malformed_grade").With("text", text).Wrap(model.ErrMalformedGrade)
	}

	value, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, oops.In("compute").Code("malformed_grade").With("text", text).Wrap(model.ErrMalformedGrade)
	}

	return value, nil
}

// Average sums without overflow, so any int input gives the nearest
// float64 to the exact mean.
func Average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := new(big.Int)
	for _, value := range values {
		sum.Add(sum, big.NewInt(int64(value)))
	}

	mean := new(big.Float).Quo(new(big.Float).SetInt(sum), new(big.Float).SetInt64(int64(len(values))))
	result, _ := mean.Float64()

	return result
}

func MinMax(values []int) (minValue, maxValue int) {
	return pie.Min(values), pie.Max(values)
}

func Letter(score int) string {
	for _, band := range letterBands {
		if score >= band.min {
			return band.letter
		}
	}

	return "E"
}
