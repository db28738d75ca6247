package index

import (
	"strings"

	"github.com/poiesic/storefront/core"
)

// synonym maps a keyword to a bag of related terms.
type synonym struct {
	keyword string
	terms   string
}

// synonyms is applied in order. Paired keywords map back to each other
// (earbuds <-> headphone, phone <-> smartphone, watch <-> smartwatch).
var synonyms = []synonym{
	// audio
	{"earbuds", "headphone headphones earphone earphones audio listen music wireless bluetooth sound"},
	{"earbud", "headphone headphones earphone earphones audio listen music wireless bluetooth sound"},
	{"headset", "headphone headphones earphone earphones audio listen music gaming voice sound"},
	{"headphone", "earbuds earphone audio listen music wireless bluetooth sound"},
	{"headphones", "earbuds earphone audio listen music wireless bluetooth sound"},
	{"speaker", "audio sound music bluetooth wireless portable speaker speakers"},

	// computing
	{"laptop", "computer computers portable notebook work coding programming device technology"},
	{"tablet", "computer computers portable touchscreen mobile device technology ipad android"},
	{"computer", "laptop desktop workstation device technology"},

	// mobile
	{"phone", "mobile smartphone device portable communication tablet smartwatch technology"},
	{"smartphone", "phone mobile device portable communication tablet smartwatch technology android iphone"},
	{"mobile", "phone smartphone device portable communication tablet technology"},

	// wearables
	{"watch", "smartwatch wearable fitness tracker device technology"},
	{"smartwatch", "watch wearable fitness tracker device mobile phone technology"},

	// media
	{"camera", "photo photography video capture image technology device"},
}

// Document returns the text indexed for a product.
func Document(p *core.Product) string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(p.Description)
	b.WriteByte(' ')
	b.WriteString(p.Category)

	name := strings.ToLower(p.Name)
	category := strings.ToLower(p.Category)
	for _, s := range synonyms {
		if strings.Contains(name, s.keyword) || strings.Contains(category, s.keyword) {
			b.WriteByte(' ')
			b.WriteString(s.terms)
		}
	}
	return b.String()
}
