package rewrite

// Apply runs one rewrite pass: every tag's rule is applied to text in
// registry order, accumulating into a working copy. The returned flag is true
// if any rule changed the text. Pure with respect to its inputs; an empty tag
// set or a text with no matches returns the input unchanged.
func Apply(text string, tags []string) (string, bool) {
	changed := false
	for _, tag := range tags {
		rule, ok := NewRule(tag)
		if !ok {
			continue
		}
		out, c := rule.Rewrite(text)
		if c {
			text = out
			changed = true
		}
	}
	return text, changed
}
