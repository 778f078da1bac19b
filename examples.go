package main

import (
	"math/rand/v2"
	"regexp"
)

var examples = map[string]string{
	"Compare a month of agent runs":        `clawkit cost --daily-runs 200 --steps 15 --cache-hit 70`,
	"Write a DeepSeek config for Windows":  `clawkit config --provider deepseek --api-key sk-... --os windows --copy`,
	"Check that your API key works":        `clawkit config --provider anthropic --api-key sk-ant-... --test`,
	"Find a skill and install it":          `clawkit skills search "pdf" | head -5`,
	"Load the catalog from the crawler":    `clawkit skills sync data/skills.json --verify`,
	"Figure out why your agent won't boot": `clawkit doctor`,
}

func randomExample() (string, string) {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	desc := keys[rand.IntN(len(keys))]
	return desc, examples[desc]
}

func cheapHighlighting(s styles, code string) string {
	code = regexp.
		MustCompile(`"([^"\\]|\\.)*"`).
		ReplaceAllStringFunc(code, func(x string) string {
			return s.Quote.Render(x)
		})
	code = regexp.
		MustCompile(`\|`).
		ReplaceAllStringFunc(code, func(x string) string {
			return s.Pipe.Render(x)
		})
	return code
}
