package usecase

import "strings"

// JoinFragments is the deterministic combination: fragments in input order,
// separated by a single space, with their text untouched.
func JoinFragments(fragments []string) string {
	return strings.Join(fragments, " ")
}
