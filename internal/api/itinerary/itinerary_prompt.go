package itinerary

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/FACorreiaa/travelx-planner/internal/types"
)

// Styles are the travel styles a prompt is randomly steered towards.
var Styles = []string{
	"luxury travel style",
	"budget-friendly travel",
	"adventure-focused trip",
	"family-friendly trip",
	"solo traveler itinerary",
	"local culture focused trip",
}

const (
	minSeed = 1000
	maxSeed = 9999
)

// Randomizer is the source of style and seed choices.
// *rand.Rand from math/rand/v2 satisfies it.
type Randomizer interface {
	IntN(n int) int
}

// NewRandomizer returns a PCG generator seeded from the clock.
func NewRandomizer() Randomizer {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>17|1))
}

// PromptVariant is the randomized part of a prompt.
type PromptVariant struct {
	Style string
	Seed  int
}

// pickVariant chooses one style uniformly and a seed in [1000, 9999].
func pickVariant(r Randomizer) PromptVariant {
	return PromptVariant{
		Style: Styles[r.IntN(len(Styles))],
		Seed:  minSeed + r.IntN(maxSeed-minSeed+1),
	}
}

const promptTemplate = `
You are a professional travel planner.

Generate a UNIQUE and DIFFERENT %d-day itinerary.
Trip Style: %s
Seed: %d

Trip Details:
From: %s
To: %s
Dates: %s to %s

Rules:
- Use Morning / Afternoon / Evening
- Mention real places
- Include local food
- Mention approximate budget in INR
- DO NOT repeat previous itineraries
`

// BuildPrompt renders the planner prompt for a trip and variant.
func BuildPrompt(req types.ItineraryRequest, v PromptVariant) string {
	return fmt.Sprintf(promptTemplate,
		req.Days, v.Style, v.Seed,
		req.Source, req.Destination,
		req.StartDate, req.EndDate,
	)
}
