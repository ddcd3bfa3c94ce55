package conversation

import "strings"

// Pronouns are rewritten to the latest entity. Order matters: 它们 must be
// tried before 它.
var Pronouns = []string{"这些", "这个", "它们", "它", "其", "该"}

// Resolver substitutes pronouns with the most recently inserted entity.
// Every pronoun maps to the same antecedent.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Resolve(sess *Session, utterance string) string {
	if !containsPronoun(utterance) {
		return utterance
	}

	sess.mu.Lock()
	antecedent, ok := sess.lastEntityLocked()
	sess.mu.Unlock()
	if !ok {
		return utterance
	}

	pairs := make([]string, 0, 2*len(Pronouns))
	for _, p := range Pronouns {
		pairs = append(pairs, p, antecedent)
	}
	return strings.NewReplacer(pairs...).Replace(utterance)
}

func containsPronoun(s string) bool {
	for _, p := range Pronouns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
