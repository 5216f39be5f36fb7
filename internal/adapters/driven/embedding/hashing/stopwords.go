package hashing

// defaultStopwords lists frequent English and Arabic function words in
// normalised form.
func defaultStopwords() map[string]struct{} {
	words := []string{
		// English
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "in",
		"is", "it", "its", "of", "on", "or", "that", "the", "this", "to", "was",
		"were", "what", "which", "who", "with",
		// Arabic
		"في", "من", "علي", "الي", "عن", "مع", "هذا", "هذه", "ذلك", "تلك", "التي",
		"الذي", "ما", "ماذا", "هو", "هي", "هل", "كان", "كانت", "ان", "او", "ثم",
		"قد", "لا", "لم", "لن", "كل", "بين", "عند", "حتي",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
