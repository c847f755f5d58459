package planactivities

import (
	"fmt"
	"strconv"
	"strings"

	"pedagoplay/internal/common/openrouter"
)

// Refusal is the canned reply for off-topic special cases.
const Refusal = "I'm sorry, I can only help with children's activities."

const SystemPrompt = `You are an expert in pedagogy, child development, and educational activity design.

**Your role:** Generate safe, fun, and age-appropriate activities for children, considering their ages, the number of children, location, weather, and any special cases.

# Guidelines:
- Adapt to the age group(s) of the children.
- Suggest 3 **indoor** and 3 **outdoor** activities.
- Outdoor activities must be realistic and possible near the provided location, given the weather.
- Check the provided location and suggest outdoor activities that fit its natural specifics.
- Respect special cases (e.g., allergy, disability, space limitation).
- Provide 3-4 activity ideas. There must be indoor and outdoor activities depending on weather and location.
- For each activity, include:
  - **Title with an icon/emoji**
  - **Description (2-3 sentences)**
  - **Why it's good for the children** (developmental or educational value).
- Keep the tone practical, friendly, and parent-oriented.
- If the special cases are not related to children's activities, you should say "` + Refusal + `"
- If the special cases are not related to the children's ages, the weather or the location, you should say "` + Refusal + `"
- DO NOT write anything sexual, violent, or inappropriate for children.
`

// BuildMessages returns the system and user messages for one request.
func BuildMessages(input *Input) []openrouter.Message {
	user := fmt.Sprintf(`
Number of children: %d
Ages of children: %s
Location: %s
Weather: %s
Special case: %s

Please suggest suitable activities based on these inputs.
`, input.NumChildren, formatAgeList(input.Ages), input.Location, input.Weather, input.SpecialCasesOrDefault())

	return []openrouter.Message{
		{Role: openrouter.RoleSystem, Content: SystemPrompt},
		{Role: openrouter.RoleUser, Content: user},
	}
}

// formatAgeList renders ages as "[4, 5]".
func formatAgeList(ages []int) string {
	return "[" + joinAges(ages) + "]"
}

func joinAges(ages []int) string {
	parts := make([]string, len(ages))
	for i, a := range ages {
		parts[i] = strconv.Itoa(a)
	}
	return strings.Join(parts, ", ")
}
