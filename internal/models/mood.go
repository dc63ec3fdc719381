package models

// Mood is one of the fixed emotional-state categories that key sessions
// and content. The set is defined at build time and never changes at runtime.
type Mood string

const (
	MoodLonely      Mood = "Lonely"
	MoodHeartbroken Mood = "Heartbroken"
	MoodLost        Mood = "Lost"
	MoodAnxious     Mood = "Anxious"
	MoodOverwhelmed Mood = "Overwhelmed"
	MoodUnmotivated Mood = "Unmotivated"
	MoodGuilty      Mood = "Guilty"
	MoodInsecure    Mood = "Insecure"
	MoodEmpty       Mood = "Empty"
	MoodStressed    Mood = "Stressed"
	MoodAngry       Mood = "Angry"
	MoodBetrayed    Mood = "Betrayed"
)

// AllMoods lists every mood in display order.
var AllMoods = []Mood{
	MoodLonely,
	MoodHeartbroken,
	MoodLost,
	MoodAnxious,
	MoodOverwhelmed,
	MoodUnmotivated,
	MoodGuilty,
	MoodInsecure,
	MoodEmpty,
	MoodStressed,
	MoodAngry,
	MoodBetrayed,
}

var moodSet = func() map[Mood]struct{} {
	m := make(map[Mood]struct{}, len(AllMoods))
	for _, mood := range AllMoods {
		m[mood] = struct{}{}
	}
	return m
}()

func ValidMood(s string) bool {
	_, ok := moodSet[Mood(s)]
	return ok
}
