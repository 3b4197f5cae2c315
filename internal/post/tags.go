package post

import (
	"strings"

	"git.sr.ht/~mariusor/tagextractor"

	"github.com/promowatch/promowatch"
)

type tags []string

func stringsContain(sl []string, v string) bool {
	for _, vs := range sl {
		if vs == v {
			return true
		}
	}
	return false
}

func uniqueValues[T comparable](sl []T, containsFn func(sl []T, u T) bool) []T {
	newSl := make([]T, 0, len(sl))
	for _, v := range sl {
		if !containsFn(newSl, v) {
			newSl = append(newSl, v)
		}
	}
	return newSl
}

func eventTags(ev promowatch.Event) tags {
	t := tags{"event", "deadline"}
	if ev.Type != "" {
		t = append(t, ev.Type)
	}
	return t
}

func renderTagsText(t tags, tagPref string) string {
	rendered := make([]string, 0, len(t))
	for _, g := range t {
		if norm := tagextractor.TagNormalize(g); norm != "" {
			rendered = append(rendered, tagPref+norm)
		}
	}
	return strings.Join(uniqueValues(rendered, stringsContain), " ")
}
