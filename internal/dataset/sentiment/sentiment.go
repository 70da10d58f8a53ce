// Package sentiment ships a small embedded corpus of labeled movie
// review snippets and a tiktoken-based featurizer for training linear
// text classifiers on it.
package sentiment

import (
	"math/rand"
)

// NumClasses is the number of sentiment classes.
const NumClasses = 2

// Class labels.
const (
	Negative int32 = 0
	Positive int32 = 1
)

// Sample is one labeled review snippet.
type Sample struct {
	Text  string
	Label int32
}

var corpus = []Sample{
	{"an absolute joy from the first scene to the last", Positive},
	{"the cast is superb and the script crackles with wit", Positive},
	{"a warm, funny and quietly moving film", Positive},
	{"gorgeous cinematography and a soundtrack to match", Positive},
	{"I laughed, I cried, I want to watch it again tonight", Positive},
	{"easily the best thing the director has ever made", Positive},
	{"a tense, smart thriller that never loses its grip", Positive},
	{"the leads have wonderful chemistry together", Positive},
	{"inventive, heartfelt and constantly surprising", Positive},
	{"a triumph of patient, confident storytelling", Positive},
	{"every frame is composed with obvious care and love", Positive},
	{"the ending landed perfectly and earned its emotion", Positive},
	{"sharp dialogue, great pacing, a genuine crowd pleaser", Positive},
	{"a small film with an enormous heart", Positive},
	{"it turns a familiar premise into something fresh", Positive},
	{"the performances elevate every single scene", Positive},
	{"funny without being cruel, sweet without being sappy", Positive},
	{"two hours flew by, I did not check my phone once", Positive},
	{"a rich, satisfying story told with real craft", Positive},
	{"this one stays with you long after the credits", Positive},
	{"a dull, plodding mess with no idea what it wants to be", Negative},
	{"the plot makes no sense and the acting is wooden", Negative},
	{"two hours of my life I will never get back", Negative},
	{"painfully unfunny jokes repeated until they hurt", Negative},
	{"the dialogue sounds like it was written by committee", Negative},
	{"a cynical cash grab with nothing new to offer", Negative},
	{"flat characters wandering through a pointless story", Negative},
	{"the pacing drags so badly I nearly walked out", Negative},
	{"cheap effects and a script full of cliches", Negative},
	{"it squanders a promising premise on lazy twists", Negative},
	{"every emotional beat feels forced and unearned", Negative},
	{"the ending is abrupt, confusing and deeply unsatisfying", Negative},
	{"a loud, exhausting film that mistakes noise for drama", Negative},
	{"I kept waiting for it to get better, it never did", Negative},
	{"the leads have zero chemistry and less charisma", Negative},
	{"a tired retread of better films you have already seen", Negative},
	{"clumsy editing ruins what little tension there is", Negative},
	{"the humor is mean spirited and the story is hollow", Negative},
	{"forgettable is the kindest word I can find for it", Negative},
	{"a bland, joyless slog from start to finish", Negative},
}

// Corpus returns a copy of the embedded corpus, positives first.
func Corpus() []Sample {
	out := make([]Sample, len(corpus))
	copy(out, corpus)
	return out
}

// Split shuffles samples with rng and splits off the trailing
// testRatio fraction as a held-out set. A nil rng keeps the input
// order.
func Split(samples []Sample, testRatio float32, rng *rand.Rand) (train, test []Sample) {
	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	if rng != nil {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}
	splitIdx := int(float32(len(shuffled)) * (1.0 - testRatio))
	return shuffled[:splitIdx], shuffled[splitIdx:]
}
