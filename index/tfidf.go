package index

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/poiesic/storefront/core"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// englishStopWords is the stop word list used when tokenizing documents and queries.
var englishStopWords = toSet(strings.Fields(`
a about above across after afterwards again against all almost alone along already also
although always am among amongst amoungst amount an and another any anyhow anyone anything
anyway anywhere are around as at back be became because become becomes becoming been before
beforehand behind being below beside besides between beyond bill both bottom but by call can
cannot cant co con could couldnt cry de describe detail do done down due during each eg eight
either eleven else elsewhere empty enough etc even ever every everyone everything everywhere
except few fifteen fifty fill find fire first five for former formerly forty found four from
front full further get give go had has hasnt have he hence her here hereafter hereby herein
hereupon hers herself him himself his how however hundred i ie if in inc indeed interest into
is it its itself keep last latter latterly least less ltd made many may me meanwhile might mill
mine more moreover most mostly move much must my myself name namely neither never nevertheless
next nine no nobody none noone nor not nothing now nowhere of off often on once one only onto or
other others otherwise our ours ourselves out over own part per perhaps please put rather re same
see seem seemed seeming seems serious several she should show side since sincere six sixty so
some somehow someone something sometime sometimes somewhere still such system take ten than that
the their them themselves then thence there thereafter thereby therefore therein thereupon these
they thick thin third this those though three through throughout thru thus to together too top
toward towards twelve twenty two un under until up upon us very via was we well were what
whatever when whence whenever where whereafter whereas whereby wherein whereupon wherever whether
which while whither who whoever whole whom whose why will with within without would yet you your
yours yourself yourselves
`))

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// analyze lowercases text, extracts word tokens, drops stop words and
// returns the unigrams followed by the bigrams of the remaining tokens.
func analyze(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	words := raw[:0]
	for _, w := range raw {
		if _, stop := englishStopWords[w]; !stop {
			words = append(words, w)
		}
	}
	if len(words) < 2 {
		return words
	}
	terms := make([]string, 0, 2*len(words)-1)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}

func countTerms(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

// fit builds the vocabulary, IDF weights and document vectors of a corpus.
// The vocabulary keeps the maxFeatures most frequent terms, ties broken
// alphabetically, and is stored in alphabetical order.
func fit(documents []string, maxFeatures int) (vocabulary []string, idf []float64, vectors [][]core.SparseWeight) {
	docCounts := make([]map[string]int, len(documents))
	totals := make(map[string]int)
	docFreq := make(map[string]int)
	for i, doc := range documents {
		counts := countTerms(analyze(doc))
		docCounts[i] = counts
		for term, n := range counts {
			totals[term] += n
			docFreq[term]++
		}
	}

	vocabulary = make([]string, 0, len(totals))
	for term := range totals {
		vocabulary = append(vocabulary, term)
	}
	if maxFeatures > 0 && len(vocabulary) > maxFeatures {
		sort.Slice(vocabulary, func(i, j int) bool {
			a, b := vocabulary[i], vocabulary[j]
			if totals[a] != totals[b] {
				return totals[a] > totals[b]
			}
			return a < b
		})
		vocabulary = vocabulary[:maxFeatures]
	}
	sort.Strings(vocabulary)

	n := float64(len(documents))
	idf = make([]float64, len(vocabulary))
	columns := make(map[string]int, len(vocabulary))
	for i, term := range vocabulary {
		columns[term] = i
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors = make([][]core.SparseWeight, len(documents))
	for i, counts := range docCounts {
		vectors[i] = weigh(counts, columns, idf)
	}
	return vocabulary, idf, vectors
}

// weigh turns raw term counts into an L2 normalized sparse TF-IDF vector
// sorted by column. Terms outside the vocabulary are ignored.
func weigh(counts map[string]int, columns map[string]int, idf []float64) []core.SparseWeight {
	vec := make([]core.SparseWeight, 0, len(counts))
	var norm float64
	for term, n := range counts {
		col, ok := columns[term]
		if !ok {
			continue
		}
		w := (1 + math.Log(float64(n))) * idf[col]
		vec = append(vec, core.SparseWeight{Term: col, Weight: w})
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].Weight /= norm
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Term < vec[j].Term })
	return vec
}

// dot returns the inner product of a document vector and a dense-by-column query.
func dot(doc []core.SparseWeight, query map[int]float64) float64 {
	var sum float64
	for _, e := range doc {
		if w, ok := query[e.Term]; ok {
			sum += e.Weight * w
		}
	}
	return sum
}
