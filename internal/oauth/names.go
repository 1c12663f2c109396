package oauth

import "strings"

// SplitName parte el nombre en el primer espacio.
// "Ada" -> ("Ada", nil); "Ada King Lovelace" -> ("Ada", "King Lovelace").
func SplitName(name string) (first, last *string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	head, tail, _ := strings.Cut(name, " ")
	first = &head
	if tail = strings.TrimSpace(tail); tail != "" {
		last = &tail
	}
	return first, last
}

// StrPtr devuelve nil para strings vacíos.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
