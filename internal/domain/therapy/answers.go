package therapy

import "strings"

type cannedRule struct {
	phrases []string
	answer  string
}

// cannedAnswers is checked in order; the first rule with a phrase contained in the question wins.
var cannedAnswers = []cannedRule{
	{
		phrases: []string{"rest", "how long", "recover", "healing", "to heal", "days off"},
		answer: "Most minor muscle strains improve with 2-3 days of relative rest followed by a gradual return to activity. " +
			"Keep moving gently within a pain-free range rather than staying completely still, and keep therapy sessions " +
			"to 15-20 minutes with at least a few hours between them. If pain has not improved after a week, get it checked.",
	},
	{
		phrases: []string{"exercise", "stretch", "workout", "yoga", "mobility"},
		answer: "Gentle stretching and light mobility work can help once the sharp phase has passed. Hold each stretch for " +
			"20-30 seconds without bouncing, stop if pain increases, and warm the area first with a short heat session. " +
			"Avoid loading the area heavily until you can move it through its full range without pain.",
	},
	{
		phrases: []string{"doctor", "physician", "healthcare", "health care", "see someone", "medical", "hospital", "emergency", "physio"},
		answer: "See a healthcare provider if pain is severe, lasts more than a week, keeps you awake at night, or follows a fall " +
			"or impact. Seek urgent care right away for numbness, tingling or weakness in a limb, loss of bladder or bowel " +
			"control, fever with back pain, or a joint that looks deformed or cannot bear weight.",
	},
	{
		phrases: []string{"sport", "play", "run", "gym", "training", "return", "game"},
		answer: "Return to sport gradually: start at about half your usual intensity and volume, and only progress when the " +
			"previous session caused no pain during or the day after. You should have full, pain-free range of motion and " +
			"normal strength on both sides before going back to full training or competition.",
	},
	{
		phrases: []string{"heat", "cold", " ice", "icing", "warm"},
		answer: "Use cold during the first 48 hours after an injury or whenever an area is swollen or warm to the touch, for up " +
			"to 20 minutes at a time with a cloth between the pack and your skin. Use heat for stiffness, tight muscles and " +
			"long-standing aches, but never on a fresh injury or a swollen area.",
	},
}

// GenericAnswer is returned when no canned rule matches.
const GenericAnswer = "I can't reach the analysis service right now, so here is some general guidance. " +
	"Keep therapy sessions short and comfortable, start at a low intensity, and stop immediately if pain increases. " +
	"Avoid heat on fresh or swollen injuries, and never use stimulation over the chest or with a pacemaker. " +
	"If your symptoms are severe, persistent, or getting worse, please consult a healthcare provider."

// EmptyQuestionAnswer is returned for a blank question.
const EmptyQuestionAnswer = "Please type a question about your symptoms or your therapy session and I'll do my best to help."

// CannedAnswer answers a question offline from a fixed keyword table. It never fails.
func CannedAnswer(question string) string {
	lower := strings.ToLower(question)
	if strings.TrimSpace(lower) == "" {
		return EmptyQuestionAnswer
	}
	for _, r := range cannedAnswers {
		for _, p := range r.phrases {
			if strings.Contains(lower, p) {
				return r.answer
			}
		}
	}
	return GenericAnswer
}
