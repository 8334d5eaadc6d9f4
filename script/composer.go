package script

import (
	"fmt"
	"math/rand"
	"strings"

	"space-video-pipeline/types"
)

var intros = []string{
	"Welcome back to our space exploration journey!",
	"Greetings, space enthusiasts!",
	"Today we're diving into the fascinating world of space!",
	"Get ready for another incredible space adventure!",
	"Welcome to today's cosmic update!",
}

var outros = []string{
	"That's all for today's space update. Keep looking up!",
	"Thanks for joining us on this cosmic journey. Until next time!",
	"Stay curious about the universe around us. See you next time!",
	"The universe never stops amazing us. Thanks for watching!",
	"Keep exploring, keep wondering. We'll see you in the next video!",
}

var insights = []string{
	"Did you know that a day on Venus is longer than its year?",
	"The International Space Station travels at 28,000 kilometers per hour.",
	"There are more possible games of chess than atoms in the observable universe.",
	"One million Earths could fit inside the Sun.",
	"Neutron stars are so dense that a teaspoon would weigh 6 billion tons.",
}

var fallbackTopics = []string{
	"Space exploration continues to push the boundaries of human knowledge. From the International Space Station orbiting 400 kilometers above Earth, astronauts conduct groundbreaking research that benefits all of humanity.",
	"The search for life beyond Earth remains one of our most compelling quests. Mars, with its ancient riverbeds and polar ice caps, holds tantalizing clues about the possibility of past or present life.",
	"Our understanding of the universe expands daily through powerful telescopes like Hubble and James Webb. These incredible instruments reveal distant galaxies, nebulae, and exoplanets that challenge our understanding of cosmic evolution.",
	"Commercial space companies are revolutionizing access to space. Reusable rockets and private space stations are making space more accessible than ever before, opening new frontiers for exploration and discovery.",
}

// Composer turns headline items into spoken-word text sized to a target
// duration.
type Composer struct {
	maxHeadlines   int
	wordsPerMinute int
}

// NewComposer builds a composer. maxHeadlines bounds how many stories are
// narrated; wordsPerMinute is the assumed speaking rate (150 is typical).
func NewComposer(maxHeadlines, wordsPerMinute int) *Composer {
	if maxHeadlines <= 0 {
		maxHeadlines = 3
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	return &Composer{maxHeadlines: maxHeadlines, wordsPerMinute: wordsPerMinute}
}

// Compose builds the full narration script: intro, one sentence per top
// headline, an occasional space insight and an outro. If the result falls
// well short of the target duration one filler passage is appended; this is
// a single corrective pass, so very long targets may still come up short.
func (c *Composer) Compose(items []types.HeadlineItem, targetSeconds int) string {
	parts := []string{intros[rand.Intn(len(intros))]}

	if len(items) == 0 {
		parts = append(parts, fallbackContent())
	} else {
		parts = append(parts, c.headlineSection(items))
	}

	if rand.Float64() < 0.7 {
		parts = append(parts, insights[rand.Intn(len(insights))])
	}

	outro := outros[rand.Intn(len(outros))]
	parts = append(parts, outro)

	full := strings.Join(parts, " ")

	targetWords := float64(targetSeconds) / 60.0 * float64(c.wordsPerMinute)
	if float64(len(strings.Fields(full))) < targetWords*0.8 {
		parts = append(parts[:len(parts)-1], fallbackContent(), outro)
		full = strings.Join(parts, " ")
	}
	return full
}

func (c *Composer) headlineSection(items []types.HeadlineItem) string {
	var sb strings.Builder
	sb.WriteString("Here are today's top space stories:")

	n := 0
	for _, item := range items {
		if n >= c.maxHeadlines {
			break
		}
		n++
		source := item.Source
		if source == "" {
			source = "Unknown Source"
		}
		sb.WriteString(fmt.Sprintf(" %d. From %s: %s", n, source, cleanTitle(item.Title)))
	}

	sb.WriteString(" Let's dive deeper into these fascinating developments in space exploration.")
	return sb.String()
}

func fallbackContent() string {
	idx := rand.Perm(len(fallbackTopics))[:2]
	return fallbackTopics[idx[0]] + " " + fallbackTopics[idx[1]]
}

// cleanTitle flattens newlines and bounds titles at 100 characters.
func cleanTitle(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	if title == "" {
		return "Unknown"
	}
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	return title
}
