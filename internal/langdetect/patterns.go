package langdetect

import (
	"regexp"

	"KrishiMitra/internal/i18n"
)

// ScriptRange is an inclusive code point interval.
type ScriptRange struct {
	Lo, Hi rune
}

func (r ScriptRange) contains(c rune) bool { return c >= r.Lo && c <= r.Hi }

// Pattern is the rule bundle for one language.
type Pattern struct {
	Code       i18n.Language
	Ranges     []ScriptRange
	Structural []*regexp.Regexp
	Keywords   []string // lowercase
}

var (
	devanagari = ScriptRange{0x0900, 0x097F}
	gurmukhi   = ScriptRange{0x0A00, 0x0A7F}
	gujarati   = ScriptRange{0x0A80, 0x0AFF}
	bengali    = ScriptRange{0x0980, 0x09FF}
	tamil      = ScriptRange{0x0B80, 0x0BFF}
	telugu     = ScriptRange{0x0C00, 0x0C7F}
)

// Bundles are kept in i18n registration order. Hindi and Marathi share the
// Devanagari range and are told apart by keywords only, so the order of the
// two decides Devanagari input without other evidence.
var patterns = []Pattern{
	{
		Code: i18n.English,
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(what|how|when|where|why|which|the|is|are)\b`),
			regexp.MustCompile(`(?i)\b(my|your|our|should|can|do|does)\b`),
		},
		Keywords: []string{"what", "how", "crop", "fertilizer", "weather", "price", "soil", "pest", "seed", "rain", "market", "farm"},
	},
	{
		Code:   i18n.Hindi,
		Ranges: []ScriptRange{devanagari},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(क्या|कैसे|कब|कहाँ|क्यों|कौन)`),
			regexp.MustCompile(`(मैं|मुझे|हमें|आपको|मेरा|मेरी)`),
		},
		Keywords: []string{"क्या", "कैसे", "फसल", "मौसम", "खाद", "मिट्टी", "कीमत", "मैं", "आपको", "है"},
	},
	{
		Code:   i18n.Marathi,
		Ranges: []ScriptRange{devanagari},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(काय|कसे|कधी|कुठे|कोणते)`),
			regexp.MustCompile(`(मला|आम्ही|तुम्ही|माझे|माझी)`),
		},
		Keywords: []string{"काय", "कसे", "पीक", "हवामान", "शेती", "माती", "बाजारभाव", "मला", "तुम्ही", "आहे"},
	},
	{
		Code:   i18n.Punjabi,
		Ranges: []ScriptRange{gurmukhi},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(ਕਿਵੇਂ|ਕਦੋਂ|ਕਿੱਥੇ|ਕਿਉਂ)`),
			regexp.MustCompile(`(ਮੈਂ|ਤੁਸੀਂ|ਸਾਡੀ|ਮੇਰੀ)`),
		},
		Keywords: []string{"ਕਿਵੇਂ", "ਫਸਲ", "ਮੌਸਮ", "ਖਾਦ", "ਮਿੱਟੀ", "ਕੀਮਤ", "ਮੈਂ", "ਤੁਸੀਂ"},
	},
	{
		Code:   i18n.Gujarati,
		Ranges: []ScriptRange{gujarati},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(શું|કેવી|ક્યારે|ક્યાં|કેમ)`),
			regexp.MustCompile(`(હું|તમે|અમારી|મારી)`),
		},
		Keywords: []string{"શું", "કેવી", "પાક", "હવામાન", "ખાતર", "માટી", "ભાવ", "હું", "તમે"},
	},
	{
		Code:   i18n.Bengali,
		Ranges: []ScriptRange{bengali},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(কেমন|কখন|কোথায়|কেন)`),
			regexp.MustCompile(`(আমি|আপনি|আমার|আমাদের)`),
		},
		Keywords: []string{"কেমন", "ফসল", "আবহাওয়া", "মাটি", "দাম", "আমি", "আপনি"},
	},
	{
		Code:   i18n.Tamil,
		Ranges: []ScriptRange{tamil},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(என்ன|எப்படி|எப்போது|எங்கே)`),
			regexp.MustCompile(`(நான்|நீங்கள்|எனது|எங்கள்)`),
		},
		Keywords: []string{"என்ன", "எப்படி", "பயிர்", "வானிலை", "உரம்", "விலை", "நான்"},
	},
	{
		Code:   i18n.Telugu,
		Ranges: []ScriptRange{telugu},
		Structural: []*regexp.Regexp{
			regexp.MustCompile(`(ఏమిటి|ఎలా|ఎప్పుడు|ఎక్కడ)`),
			regexp.MustCompile(`(నేను|మీరు|నా|మా)\s`),
		},
		Keywords: []string{"ఏమిటి", "ఎలా", "పంట", "వాతావరణం", "ఎరువు", "ధర", "నేను", "మీరు"},
	},
}

// Patterns returns a copy of the rule bundles in evaluation order.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}
