package lexicon

// defaultEntries is the built-in English to Vietnamese dictionary
var defaultEntries = map[string][]Candidate{
	"hello":   {{"xin chao", 0.6}},
	"world":   {{"the gioi", 0.3}},
	"good":    {{"tot", 0.7}, {"ngon", 0.3}},
	"morning": {{"buoi sang", 0.5}},
	"my":      {{"cua minh", 0.6}},
	"friend":  {{"ban", 0.8}, {"nguoi ban", 0.2}},
	"how":     {{"the nao", 1.0}},
	"are":     {{"dang", 1.0}},
	"you":     {{"ban", 1.0}},
	"i":       {{"toi", 1.0}},
	"am":      {{"dang", 1.0}},
	"fine":    {{"on", 1.0}, {"khoe", 0.3}},
}

// Default returns a fresh lexicon holding the built-in dictionary. Each call
// returns an independent copy.
func Default() *Lexicon {
	l, err := New(defaultEntries)
	if err != nil {
		// The built-in table is static; a failure here is a programming error
		panic(err)
	}
	return l
}
