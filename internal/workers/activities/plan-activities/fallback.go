package planactivities

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var indoorActivities = []string{
	"🎨 **Art & Craft Time**\nCreate colorful drawings, make paper crafts, or try finger painting. This helps develop creativity and fine motor skills.\n\n",
	"📚 **Story Time**\nRead books together, create your own stories, or act out favorite tales. Great for language development and imagination.\n\n",
	"🧩 **Puzzle & Games**\nWork on age-appropriate puzzles, play board games, or create your own games. Develops problem-solving skills.\n\n",
	"🎵 **Music & Dance**\nSing songs, play simple instruments, or have a dance party. Great for rhythm and coordination.\n\n",
}

var outdoorActivities = []string{
	"🌳 **Nature Exploration**\nGo for a walk, collect leaves, or explore the garden. Learn about plants and animals in your area.\n\n",
	"⚽ **Active Play**\nPlay ball games, run around, or have a mini sports day. Great for physical development and energy.\n\n",
	"🏖️ **Sand & Water Play**\nIf available, play with sand or water. Build sandcastles or have water fun. Develops sensory skills.\n\n",
	"🚶 **Adventure Walk**\nExplore your neighborhood, visit a park, or go on a treasure hunt. Encourages exploration and discovery.\n\n",
}

const (
	parkActivity       = "🌳 **Park Adventure**\nVisit the local park, play on playground equipment, or have a picnic. Perfect for outdoor fun!\n\n"
	toddlerActivity    = "👶 **Toddler Fun**\nSimple sensory play, soft toys, and gentle activities perfect for little ones.\n\n"
	bigKidActivity     = "🎯 **Big Kid Activities**\nMore complex crafts, science experiments, or organized games for older children.\n\n"
	allergyActivity    = "⚠️ **Allergy-Safe Activities**\nAll activities are designed to be safe and avoid common allergens.\n\n"
	accessibleActivity = "♿ **Accessible Activities**\nAll suggested activities are designed to be inclusive and accessible for all children.\n\n"

	fallbackTips = "\n💡 **Tips:**\n" +
		"- Always supervise children during activities\n" +
		"- Adapt activities to your child's interests and abilities\n" +
		"- Have fun and be creative!\n"

	maxSelected = 4
	defaultAge  = 4.0
)

var clearOutdoorWeather = map[string]bool{
	"sunny":         true,
	"cloudy":        true,
	"partly cloudy": true,
	"partly-cloudy": true,
}

// FallbackGenerator renders a plan locally from a fixed template bank.
type FallbackGenerator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	title cases.Caser
}

// NewFallbackGenerator samples with rng; nil seeds from the clock.
func NewFallbackGenerator(rng *rand.Rand) *FallbackGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &FallbackGenerator{
		rng:   rng,
		title: cases.Title(language.Und),
	}
}

// Generate fails only for a nil request.
func (g *FallbackGenerator) Generate(input *Input) (string, error) {
	if input == nil {
		return "", fmt.Errorf("planning request is nil")
	}

	selected := g.sample(candidateActivities(input))

	var b strings.Builder
	plural := ""
	if input.NumChildren > 1 {
		plural = "ren"
	}
	fmt.Fprintf(&b, "🎉 **Fun Activities for %d child%s (ages %s)**\n\n", input.NumChildren, plural, joinAges(input.Ages))
	fmt.Fprintf(&b, "📍 **Location:** %s\n", input.Location)
	g.mu.Lock()
	weather := g.title.String(input.Weather)
	g.mu.Unlock()
	fmt.Fprintf(&b, "🌤️ **Weather:** %s\n\n", weather)
	b.WriteString("**Here are some great activities for your little ones:**\n\n")

	for i, activity := range selected {
		fmt.Fprintf(&b, "%d. %s", i+1, activity)
	}
	b.WriteString(fallbackTips)

	return b.String(), nil
}

func (g *FallbackGenerator) sample(pool []string) []string {
	n := len(pool)
	if n > maxSelected {
		n = maxSelected
	}

	g.mu.Lock()
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	g.mu.Unlock()

	return pool[:n]
}

func isClearOutdoor(weather string) bool {
	return clearOutdoorWeather[strings.ToLower(strings.TrimSpace(weather))]
}

// candidateActivities builds a fresh pool for one request.
func candidateActivities(input *Input) []string {
	weather := strings.ToLower(strings.TrimSpace(input.Weather))
	outdoor := isClearOutdoor(weather)

	var pool []string
	if !outdoor || weather == "rainy" || weather == "snowy" {
		pool = append(pool, indoorActivities...)
	}
	if outdoor {
		pool = append(pool, outdoorActivities...)
	}

	if strings.Contains(strings.ToLower(input.Location), "park") {
		pool = append(pool, parkActivity)
	}

	switch avg := averageAge(input.Ages); {
	case avg < 3:
		pool = append(pool, toddlerActivity)
	case avg > 6:
		pool = append(pool, bigKidActivity)
	}

	special := strings.ToLower(input.SpecialCases)
	if strings.Contains(special, "allergy") {
		pool = append(pool, allergyActivity)
	}
	if strings.Contains(special, "disability") || strings.Contains(special, "wheelchair") {
		pool = append(pool, accessibleActivity)
	}
	return pool
}

func averageAge(ages []int) float64 {
	if len(ages) == 0 {
		return defaultAge
	}
	sum := 0
	for _, a := range ages {
		sum += a
	}
	return float64(sum) / float64(len(ages))
}

// seededRand returns a deterministic source for a non-zero seed.
func seededRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
