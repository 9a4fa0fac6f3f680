package otshape

import (
	"golang.org/x/text/language"

	"github.com/npillmayer/otshaping/ot"
)

// otLangTags maps BCP 47 base-language codes to OpenType language-system
// tags. The OT registry is its own naming scheme, unrelated to ISO codes;
// this covers the widely used entries. Unlisted languages use the
// script's default language system, which is what most fonts expect.
var otLangTags = map[string]string{
	"af": "AFK",
	"ar": "ARA",
	"az": "AZE",
	"be": "BEL",
	"bg": "BGR",
	"bn": "BEN",
	"ca": "CAT",
	"cs": "CSY",
	"da": "DAN",
	"de": "DEU",
	"el": "ELL",
	"en": "ENG",
	"es": "ESP",
	"et": "ETI",
	"fa": "FAR",
	"fi": "FIN",
	"fr": "FRA",
	"he": "IWR",
	"hi": "HIN",
	"hr": "HRV",
	"hu": "HUN",
	"hy": "HYE",
	"it": "ITA",
	"ja": "JAN",
	"ka": "KAT",
	"ko": "KOR",
	"lt": "LTH",
	"lv": "LVI",
	"mk": "MKD",
	"mn": "MNG",
	"nl": "NLD",
	"no": "NOR",
	"pl": "PLK",
	"pt": "PTG",
	"ro": "ROM",
	"ru": "RUS",
	"sk": "SKY",
	"sl": "SLV",
	"sq": "SQI",
	"sr": "SRB",
	"sv": "SVE",
	"th": "THA",
	"tr": "TRK",
	"uk": "UKR",
	"ur": "URD",
	"vi": "VIT",
	"zh": "ZHS",
}

// LanguageTagForLanguage derives the OpenType language-system tag for a
// BCP 47 language tag. minConfidence guards against inferring a language
// system from a tag whose base language is itself a guess; below it the
// default language system is requested.
func LanguageTagForLanguage(lang language.Tag, minConfidence language.Confidence) ot.Tag {
	base, conf := lang.Base()
	if conf < minConfidence {
		return ot.DefaultLanguage
	}
	if t, ok := otLangTags[base.String()]; ok {
		return ot.T(t)
	}
	return ot.DefaultLanguage
}
