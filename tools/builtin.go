package tools

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CurrentTimeTool reports the current time, optionally in a named zone.
type CurrentTimeTool struct{}

func (t *CurrentTimeTool) Name() string { return "get_current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Returns the current date and time. Args: timezone (string, optional), " +
		"an IANA zone name like \"Europe/Berlin\". Falls back to UTC when the zone " +
		"is not recognized."
}

func (t *CurrentTimeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA timezone name, e.g. \"America/New_York\". Defaults to UTC.",
			},
		},
	}
}

const timeLayout = "2006-01-02 15:04:05 MST"

func (t *CurrentTimeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	tz, _ := args["timezone"].(string)
	if tz == "" {
		return time.Now().UTC().Format(timeLayout), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		// Unrecognized zone is not a failure; answer in UTC instead.
		return fmt.Sprintf("unknown timezone %q, using UTC: %s",
			tz, time.Now().UTC().Format(timeLayout)), nil
	}
	return time.Now().In(loc).Format(timeLayout), nil
}

// RandomTool generates random numbers, strings and uuids.
type RandomTool struct{}

func (t *RandomTool) Name() string { return "generate_random" }

func (t *RandomTool) Description() string {
	return "Generates a random value. Args: type (string: \"number\", \"string\" or \"uuid\"), " +
		"min/max (numbers, for type number, default 0 and 100), " +
		"length (number, for type string, default 10)."
}

func (t *RandomTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{"number", "string", "uuid"},
			},
			"min":    map[string]any{"type": "number"},
			"max":    map[string]any{"type": "number"},
			"length": map[string]any{"type": "integer"},
		},
		"required": []string{"type"},
	}
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (t *RandomTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	variant, _ := args["type"].(string)
	switch variant {
	case "number":
		min, max := 0.0, 100.0
		if v, ok := args["min"].(float64); ok {
			min = v
		}
		if v, ok := args["max"].(float64); ok {
			max = v
		}
		if max <= min {
			return fmt.Sprintf("invalid range: min %v is not below max %v", min, max), nil
		}
		return fmt.Sprintf("%g", min+rand.Float64()*(max-min)), nil
	case "string":
		length := 10
		if v, ok := args["length"].(float64); ok && v > 0 {
			length = int(v)
		}
		var b strings.Builder
		for i := 0; i < length; i++ {
			b.WriteByte(randomAlphabet[rand.Intn(len(randomAlphabet))])
		}
		return b.String(), nil
	case "uuid":
		return uuid.NewString(), nil
	default:
		return fmt.Sprintf("invalid type %q: must be \"number\", \"string\" or \"uuid\"", variant), nil
	}
}
