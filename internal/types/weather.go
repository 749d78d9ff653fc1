package types

import (
	"encoding/json"
	"fmt"
)

// WeatherDay is the subset of a provider's daily forecast the dashboard reads.
type WeatherDay struct {
	Date        string  `json:"datetime"`
	TempMax     float64 `json:"tempmax"`
	TempMin     float64 `json:"tempmin"`
	Temp        float64 `json:"temp"`
	Conditions  string  `json:"conditions"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	PrecipProb  float64 `json:"precipprob"`
}

// WeatherResult keeps the provider payload verbatim next to a typed summary.
// It marshals back to exactly the raw payload.
type WeatherResult struct {
	ResolvedAddress string
	Days            []WeatherDay
	Raw             json.RawMessage
}

// ParseWeatherResult validates a provider payload and decodes its summary.
func ParseWeatherResult(raw []byte) (*WeatherResult, error) {
	var summary struct {
		ResolvedAddress string       `json:"resolvedAddress"`
		Days            []WeatherDay `json:"days"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode weather payload: %w", err)
	}
	return &WeatherResult{
		ResolvedAddress: summary.ResolvedAddress,
		Days:            summary.Days,
		Raw:             append(json.RawMessage(nil), raw...),
	}, nil
}

func (w WeatherResult) MarshalJSON() ([]byte, error) {
	if len(w.Raw) == 0 {
		return []byte("null"), nil
	}
	return w.Raw, nil
}

func (w *WeatherResult) UnmarshalJSON(b []byte) error {
	parsed, err := ParseWeatherResult(b)
	if err != nil {
		return err
	}
	*w = *parsed
	return nil
}
