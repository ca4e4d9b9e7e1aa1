package coach

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

type emojiSet []string

var (
	greetingEmojis   = emojiSet{"👋", "✨", "🌟", "💫", "😊", "🤗", "👍", "🙌", "👏", "🎉"}
	workoutEmojis    = emojiSet{"💪", "🏋️", "🎯", "⚡", "🔥", "🏃", "🤸", "🧘", "🏆", "💯", "🚀", "🏄", "🧗", "🤾", "🏊", "🚴", "🥊"}
	nutritionEmojis  = emojiSet{"🥗", "🍎", "🥑", "🥩", "🍗", "🥦", "🥛", "🍓", "🍽️", "🥝", "🍹", "🥤", "🍚", "🥜", "🧉", "🍲", "🫐"}
	progressEmojis   = emojiSet{"📈", "🎯", "🌟", "💫", "🚀", "🔝", "🏆", "🌈", "💎", "✅", "📊", "🔄", "↗️", "🏅", "🎖️", "🦾", "⬆️"}
	motivationEmojis = emojiSet{"💪", "🔥", "⚡", "✨", "💯", "🚀", "🎯", "📈", "⭐", "💎", "🏁", "🧠", "💥", "👊", "😤", "🔋", "⏱️"}
	recoveryEmojis   = emojiSet{"🧘", "💆", "🌿", "🎋", "🧠", "😴", "🌙", "⏱️", "🔄", "🌊", "🧖", "☕", "💤", "🛌", "🌼", "🧘‍♀️", "🌱"}
	systemEmojis     = emojiSet{"🔄", "⚙️", "🔧", "📢", "🔔", "🔎", "🖥️", "📱", "⌨️", "🔌", "📡", "🗃️", "📂", "⏰", "🔐", "🛠️", "📊"}
	errorEmojis      = emojiSet{"⚠️", "❌", "🚫", "⛔", "😵", "🆘", "⭕", "🔴", "❗", "❓", "⁉️", "🔇", "💢", "😬", "🤬", "😱", "🤔"}
	successEmojis    = emojiSet{"✅", "👍", "🌟", "💫", "🎉", "🥳", "🏆", "🎊", "💯", "🤩", "💚", "👌", "🙌", "💪", "🚀", "🔥", "👏"}
)

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	parenthesesPattern  = regexp.MustCompile(`\(.*?\)`)
	vocabularyPattern   = regexp.MustCompile(`(?i)\b(workout|strength|cardio|form|muscle|fitness|goal|progress|training|exercise|protein|calories|weight|rest|recovery|sets|reps)\b`)
	measurementsPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?(?:\s*(?:kg|lbs|kcal|calories|mins|minutes|reps|sets))?)\b`)
)

// Formatter decorates model output for the chat UI.
type Formatter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewFormatter returns a Formatter. A nil rnd seeds one from the clock.
func NewFormatter(rnd *rand.Rand) *Formatter {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Formatter{rnd: rnd}
}

func (f *Formatter) pick(set emojiSet) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return set[f.rnd.IntN(len(set))]
}

// Format flattens text onto one line, drops parenthesized asides, prefixes
// an emoji and highlights fitness vocabulary and measurements in bold.
// Text flagged as a system, error or success message only gets the emoji.
func (f *Formatter) Format(text string) string {
	out := strings.TrimSpace(whitespacePattern.ReplaceAllString(strings.ReplaceAll(text, "\n", " "), " "))
	out = parenthesesPattern.ReplaceAllString(out, "")

	raw := strings.ToLower(text)
	switch {
	case containsAny(raw, "history cleared", "deleted"):
		return f.pick(systemEmojis) + " " + out
	case containsAny(raw, "error", "failed"):
		return f.pick(errorEmojis) + " " + out
	case containsAny(raw, "success", "updated"):
		return f.pick(successEmojis) + " " + out
	}

	if !startsWithEmoji(out) {
		out = f.pick(category(out)) + " " + out
	}
	if !strings.Contains(out, "**") {
		out = vocabularyPattern.ReplaceAllString(out, "**${1}**")
		out = measurementsPattern.ReplaceAllString(out, "**${1}**")
	}
	return out
}

// System renders a notice such as "Chat history cleared.".
func (f *Formatter) System(msg string) string {
	return f.pick(systemEmojis) + " **System**: " + msg
}

func category(text string) emojiSet {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "hello", "привет"):
		return greetingEmojis
	case containsAny(lower, "eat", "nutrition"):
		return nutritionEmojis
	case containsAny(lower, "rest", "recovery"):
		return recoveryEmojis
	case containsAny(lower, "progress", "improve"):
		return progressEmojis
	case containsAny(lower, "motivation", "goal"):
		return motivationEmojis
	}
	return workoutEmojis
}

// startsWithEmoji reports whether s begins with a rune carrying the Unicode
// Emoji property. That property includes the ASCII digits, '#' and '*', so
// text opening with a number is left without a prefix.
func startsWithEmoji(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	switch {
	case r == utf8.RuneError:
		return false
	case r >= '0' && r <= '9', r == '#', r == '*':
		return true
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139,
		r == 0x24C2, r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		return true
	case r >= 0x2194 && r <= 0x21AA,
		r >= 0x231A && r <= 0x23FF,
		r >= 0x25AA && r <= 0x25FE,
		r >= 0x2600 && r <= 0x27BF,
		r >= 0x2934 && r <= 0x2935,
		r >= 0x2B05 && r <= 0x2B55,
		r >= 0x1F000 && r <= 0x1FAFF:
		return true
	}
	return false
}
