package therapy

import (
	"regexp"
	"strings"
)

// keywordRule pairs a keyword group with the label it yields. Rules are evaluated top to bottom.
type keywordRule struct {
	keywords []string
	label    string
	re       *regexp.Regexp
}

// matches reports whether any keyword appears as a whole word, allowing a short inflection suffix.
func (r keywordRule) matches(lower string) bool {
	return r.re.MatchString(lower)
}

func compileRules(rules []keywordRule) []keywordRule {
	for i := range rules {
		quoted := make([]string, len(rules[i].keywords))
		for j, kw := range rules[i].keywords {
			quoted[j] = regexp.QuoteMeta(kw)
		}
		rules[i].re = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)(?:s|es|d|ed|ing|ness|ly)?\b`)
	}
	return rules
}

// GenericArea is returned when no region keyword matches.
const GenericArea = "General Muscle Area"

// areaRules is grouped by region: back, shoulder, neck, knee/leg, arm, ankle/foot, hip/glute, torso.
// Within a group the side-specific rules come before the generic one.
var areaRules = compileRules([]keywordRule{
	// back
	{keywords: []string{"lower back", "lumbar", "low back"}, label: "Lower Back - Lumbar Region"},
	{keywords: []string{"upper back", "thoracic", "shoulder blade"}, label: "Upper Back - Thoracic Region"},
	{keywords: []string{"middle back", "mid back", "mid-back"}, label: "Middle Back"},
	{keywords: []string{"back", "spine", "spinal"}, label: "Back - General"},

	// shoulder
	{keywords: []string{"left shoulder"}, label: "Left Shoulder Joint"},
	{keywords: []string{"right shoulder"}, label: "Right Shoulder Joint"},
	{keywords: []string{"shoulder", "rotator cuff", "deltoid"}, label: "Shoulder Joint"},

	// neck
	{keywords: []string{"neck", "cervical"}, label: "Neck - Cervical Region"},
	{keywords: []string{"trapezius", "traps"}, label: "Upper Trapezius"},

	// knee / leg
	{keywords: []string{"left knee"}, label: "Left Knee Joint"},
	{keywords: []string{"right knee"}, label: "Right Knee Joint"},
	{keywords: []string{"knee", "patella", "kneecap"}, label: "Knee Joint"},
	{keywords: []string{"hamstring"}, label: "Hamstring Muscles"},
	{keywords: []string{"quad", "quadricep", "thigh"}, label: "Quadriceps - Thigh"},
	{keywords: []string{"calf", "calves", "shin"}, label: "Lower Leg - Calf"},
	{keywords: []string{"leg"}, label: "Leg - General"},

	// arm
	{keywords: []string{"elbow", "tennis elbow"}, label: "Elbow Joint"},
	{keywords: []string{"wrist", "carpal"}, label: "Wrist Joint"},
	{keywords: []string{"forearm"}, label: "Forearm Muscles"},
	{keywords: []string{"bicep", "tricep", "upper arm", "arm"}, label: "Upper Arm"},

	// ankle / foot
	{keywords: []string{"ankle"}, label: "Ankle Joint"},
	{keywords: []string{"achilles"}, label: "Achilles Tendon"},
	{keywords: []string{"foot", "feet", "heel", "plantar"}, label: "Foot - Plantar Region"},

	// hip / glute
	{keywords: []string{"hip"}, label: "Hip Joint"},
	{keywords: []string{"glute", "buttock", "sciatic", "sciatica", "piriformis"}, label: "Gluteal Region"},

	// torso
	{keywords: []string{"chest", "pectoral", "pec"}, label: "Chest - Pectoral Region"},
	{keywords: []string{"rib", "oblique", "flank"}, label: "Ribs - Oblique Region"},
	{keywords: []string{"abdomen", "abdominal", "abs", "stomach", "core"}, label: "Abdominal Region"},
})

var (
	severeRule = compileRules([]keywordRule{{
		keywords: []string{"severe", "intense", "sharp", "extreme", "excruciating", "unbearable", "stabbing"},
		label:    string(SeveritySevere),
	}})[0]
	mildRule = compileRules([]keywordRule{{
		keywords: []string{"mild", "slight", "minor", "a little", "faint"},
		label:    string(SeverityMild),
	}})[0]
)

// therapyRule maps a keyword group to a therapy pairing.
type therapyRule struct {
	keywordRule
	rec        TherapyRecommendation
	precaution string
}

const (
	heatPrecaution = "Avoid heat on fresh injuries, open wounds or visibly swollen areas."
	coldPrecaution = "Never apply cold directly to bare skin; limit cold sessions to 20 minutes."
	emsPrecaution  = "Do not use electrical stimulation over the chest, the front of the neck, or with a pacemaker."
)

var therapyRules = func() []therapyRule {
	rules := []therapyRule{
		{
			keywordRule: keywordRule{keywords: []string{"muscle", "tight", "stiff", "knot", "tension", "cramp", "sore"}},
			rec: TherapyRecommendation{
				PrimaryTherapy:   "Heat Therapy",
				SecondaryTherapy: "EMS Stimulation",
				TemperatureLabel: "Medium (40°C)",
				FrequencyLabel:   "2-3 times daily",
			},
			precaution: heatPrecaution,
		},
		{
			keywordRule: keywordRule{keywords: []string{"inflammation", "inflamed", "swell", "swollen", "acute", "sprain", "bruise"}},
			rec: TherapyRecommendation{
				PrimaryTherapy:   "Cold Therapy",
				SecondaryTherapy: "Light Compression",
				TemperatureLabel: "Cool (15°C)",
				FrequencyLabel:   "Every 2-3 hours for the first 48 hours",
			},
			precaution: coldPrecaution,
		},
		{
			keywordRule: keywordRule{keywords: []string{"chronic", "recurring", "recurrent", "persistent", "ongoing", "arthritis"}},
			rec: TherapyRecommendation{
				PrimaryTherapy:   "Alternating Heat/EMS",
				SecondaryTherapy: "Low-Frequency Stimulation",
				TemperatureLabel: "Warm (38°C)",
				FrequencyLabel:   "Once daily",
			},
			precaution: emsPrecaution,
		},
	}
	kw := make([]keywordRule, len(rules))
	for i := range rules {
		kw[i] = rules[i].keywordRule
	}
	compileRules(kw)
	for i := range rules {
		rules[i].keywordRule = kw[i]
	}
	return rules
}()

var defaultTherapy = therapyRule{
	rec: TherapyRecommendation{
		PrimaryTherapy:   "Heat Therapy",
		SecondaryTherapy: "Light EMS",
		TemperatureLabel: "Medium (38°C)",
		FrequencyLabel:   "2-3 times daily",
	},
	precaution: heatPrecaution,
}
